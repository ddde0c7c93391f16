package dnswire_test

import (
	"testing"

	"github.com/jroosing/dnslens/internal/dnswire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReply(t *testing.T) {
	query := dnswire.Header{
		ID:               0x7E11,
		IsQuery:          true,
		Opcode:           dnswire.OpcodeQuery,
		RecursionDesired: true,
		QuestionCount:    1,
	}

	wire, err := dnswire.BuildReply(query, dnswire.RCodeRefused)
	require.NoError(t, err)
	require.Len(t, wire, dnswire.HeaderSize)

	reply, _, err := dnswire.DecodeHeader(wire)
	require.NoError(t, err)

	assert.Equal(t, query.ID, reply.ID)
	assert.False(t, reply.IsQuery)
	assert.Equal(t, query.Opcode, reply.Opcode)
	assert.True(t, reply.RecursionDesired)
	assert.False(t, reply.RecursionAvailable)
	assert.Equal(t, dnswire.RCodeRefused, reply.ResponseCode)
	assert.Zero(t, reply.QuestionCount)
	assert.Zero(t, reply.AnswerCount)
}

func TestBuildReplyRejectsInvalidRCode(t *testing.T) {
	_, err := dnswire.BuildReply(dnswire.Header{ID: 1}, dnswire.RCode(12))
	assert.Error(t, err)
}

func TestBuildRawReply(t *testing.T) {
	t.Run("recovers id and rd", func(t *testing.T) {
		raw := []byte{0xBE, 0xEF, 0x01, 0x00} // query with RD set, then cut off
		wire, err := dnswire.BuildRawReply(raw, dnswire.RCodeFormErr)
		require.NoError(t, err)

		reply, _, err := dnswire.DecodeHeader(wire)
		require.NoError(t, err)
		assert.Equal(t, uint16(0xBEEF), reply.ID)
		assert.True(t, reply.RecursionDesired)
		assert.False(t, reply.IsQuery)
		assert.Equal(t, dnswire.RCodeFormErr, reply.ResponseCode)
	})

	t.Run("single byte prefix", func(t *testing.T) {
		wire, err := dnswire.BuildRawReply([]byte{0xBE}, dnswire.RCodeFormErr)
		require.NoError(t, err)

		reply, _, err := dnswire.DecodeHeader(wire)
		require.NoError(t, err)
		assert.Zero(t, reply.ID)
		assert.False(t, reply.RecursionDesired)
	})

	t.Run("empty prefix", func(t *testing.T) {
		wire, err := dnswire.BuildRawReply(nil, dnswire.RCodeServFail)
		require.NoError(t, err)

		reply, _, err := dnswire.DecodeHeader(wire)
		require.NoError(t, err)
		assert.Zero(t, reply.ID)
		assert.Equal(t, dnswire.RCodeServFail, reply.ResponseCode)
	})
}
