package main

import (
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// Identity is what the gateway hands the hub: a verified player, nothing
// about how they proved it.
type Identity struct {
	PlayerID int64
	Name     string
	Address  string
}

// Gateway verifies connection tokens. Account signup/login lives in the
// outer product; only HS256 verification happens here.
type Gateway struct {
	jwtKey []byte
}

func NewGateway(keyPath string) (*Gateway, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil || len(key) < 32 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
		_ = os.MkdirAll(filepath.Dir(keyPath), 0o755)
		if werr := os.WriteFile(keyPath, key, 0o600); werr != nil {
			return nil, werr
		}
	}
	return &Gateway{jwtKey: key}, nil
}

// ParseToken returns the identity carried by a signed token.
func (g *Gateway) ParseToken(tok string) (Identity, error) {
	if tok == "" {
		return Identity{}, errors.New("missing token")
	}
	t, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return g.jwtKey, nil
	})
	if err != nil || !t.Valid {
		return Identity{}, errors.New("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("bad claims")
	}
	id := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		id.Name = sub
	}
	if pid, ok := claims["pid"].(float64); ok {
		id.PlayerID = int64(pid)
	}
	if addr, ok := claims["addr"].(string); ok {
		id.Address = addr
	}
	if id.Name == "" {
		return Identity{}, errors.New("bad claims")
	}
	if id.PlayerID == 0 {
		id.PlayerID = protocol.NewID()
	}
	return id, nil
}

// TokenFromRequestParts extracts the raw token from an Authorization
// header value or a query parameter, header first.
func TokenFromRequestParts(authHeader, queryToken string) string {
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return queryToken
}

// GuestIdentity is used when a connection arrives without a token.
func GuestIdentity() Identity {
	return Identity{PlayerID: protocol.NewID(), Name: "Guest"}
}
