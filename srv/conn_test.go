package srv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

func TestCloseSendReleasesWriter(t *testing.T) {
	c := newTestConn(1, "ada")
	sendJSON(c, protocol.TypePong, protocol.Pong{})

	c.closeSend()
	c.closeSend() // idempotent

	// a late producer must not panic on the closed channel
	sendJSON(c, protocol.TypePong, protocol.Pong{})

	// the queued frame drains, then the range in writer terminates
	<-c.send
	_, open := <-c.send
	assert.False(t, open, "send channel must be closed after closeSend")
}

func TestSendJSONNilConnIsNoOp(t *testing.T) {
	sendJSON(nil, protocol.TypePong, protocol.Pong{}) // must not panic
}
