// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package ntlm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-auth/go-rpch/common"
	"github.com/golang-auth/go-rpch/registry"
)

var ntlmSignature = []byte("NTLMSSP\x00")

// challengeFixture builds a minimal well-formed CHALLENGE message:
// unicode only, no target name, no target info.
func challengeFixture() []byte {
	var b bytes.Buffer

	b.Write(ntlmSignature)
	_ = binary.Write(&b, binary.LittleEndian, uint32(2)) // message type

	// TargetName varField: len, maxlen, offset
	_ = binary.Write(&b, binary.LittleEndian, uint16(0))
	_ = binary.Write(&b, binary.LittleEndian, uint16(0))
	_ = binary.Write(&b, binary.LittleEndian, uint32(48))

	// negotiate flags: unicode
	_ = binary.Write(&b, binary.LittleEndian, uint32(0x00000001))

	b.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8}) // server challenge
	b.Write(make([]byte, 8))                // reserved

	// TargetInfo varField
	_ = binary.Write(&b, binary.LittleEndian, uint16(0))
	_ = binary.Write(&b, binary.LittleEndian, uint16(0))
	_ = binary.Write(&b, binary.LittleEndian, uint32(48))

	return b.Bytes()
}

func TestRegistered(t *testing.T) {
	assert.True(t, registry.IsRegistered(PackageName))

	ctx := registry.New(PackageName)
	require.NotNil(t, ctx)
	assert.Equal(t, "NTLM", ctx.PackageName())
	assert.False(t, ctx.IsComplete())
}

func TestAuthenticateBeforeSetup(t *testing.T) {
	ctx := New()
	_, err := ctx.Authenticate()
	assert.Error(t, err)
}

func TestSetupClient(t *testing.T) {
	ctx := New().(*Context)

	err := ctx.SetupClient(common.ContextConfig{
		TargetClass: "HTTP",
		TargetHost:  "gateway.example.com",
		Identity:    common.NewIdentity(`EXAMPLE\alice`, "", "hunter2"),
		Flags:       common.FlagConfidentiality,
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", ctx.user)
	assert.Equal(t, "EXAMPLE", ctx.domain)
	assert.Equal(t, "hunter2", ctx.password)
	assert.False(t, ctx.anonymous)

	// double setup is a programmer error
	assert.Error(t, ctx.SetupClient(common.ContextConfig{}))
}

func TestSetupClientExplicitDomain(t *testing.T) {
	ctx := New().(*Context)

	err := ctx.SetupClient(common.ContextConfig{
		Identity: common.NewIdentity("alice", "EXAMPLE", "hunter2"),
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", ctx.user)
	assert.Equal(t, "EXAMPLE", ctx.domain)
	assert.False(t, ctx.domainNeeded)
}

func TestSetupClientAnonymous(t *testing.T) {
	ctx := New().(*Context)

	require.NoError(t, ctx.SetupClient(common.ContextConfig{}))
	assert.True(t, ctx.anonymous)
}

func TestSetupClientCriticalBinding(t *testing.T) {
	ctx := New()

	err := ctx.SetupClient(common.ContextConfig{
		Binding: &common.ChannelBinding{Data: []byte("x"), Critical: true},
	})
	assert.Error(t, err)
}

func TestNegotiateRound(t *testing.T) {
	ctx := New()
	require.NoError(t, ctx.SetupClient(common.ContextConfig{
		Identity: common.NewIdentity("alice@example.com", "", "hunter2"),
	}))

	verdict, err := ctx.Authenticate()
	require.NoError(t, err)
	assert.Equal(t, common.VerdictContinue, verdict)
	assert.False(t, ctx.IsComplete())

	require.True(t, ctx.HaveOutputToken())
	token := ctx.TakeOutputToken()
	assert.True(t, bytes.HasPrefix(token, ntlmSignature), "NEGOTIATE must carry the NTLMSSP signature")
	assert.False(t, ctx.HaveOutputToken(), "TakeOutputToken clears the pending token")
}

func TestChallengeWithoutToken(t *testing.T) {
	ctx := New()
	require.NoError(t, ctx.SetupClient(common.ContextConfig{
		Identity: common.NewIdentity("alice@example.com", "", "hunter2"),
	}))

	_, err := ctx.Authenticate()
	require.NoError(t, err)
	ctx.TakeOutputToken()

	// the gateway never answered with a CHALLENGE: hard failure
	_, err = ctx.Authenticate()
	require.Error(t, err)

	var authErr *common.AuthError
	assert.True(t, errors.As(err, &authErr))
	assert.Equal(t, "NTLM", authErr.Package)
}

func TestFullNegotiation(t *testing.T) {
	ctx := New()
	require.NoError(t, ctx.SetupClient(common.ContextConfig{
		Identity: common.NewIdentity("alice@example.com", "", "hunter2"),
	}))

	// round 1: NEGOTIATE out
	verdict, err := ctx.Authenticate()
	require.NoError(t, err)
	require.Equal(t, common.VerdictContinue, verdict)
	ctx.TakeOutputToken()

	// round 2: CHALLENGE in, AUTHENTICATE out
	ctx.GiveInputToken(challengeFixture())
	verdict, err = ctx.Authenticate()
	require.NoError(t, err)
	assert.Equal(t, common.VerdictContinue, verdict)
	assert.True(t, ctx.IsComplete())

	require.True(t, ctx.HaveOutputToken())
	token := ctx.TakeOutputToken()
	assert.True(t, bytes.HasPrefix(token, ntlmSignature))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(token[8:12]), "AUTHENTICATE message type")

	// completion is monotonic and further steps have nothing to send
	verdict, err = ctx.Authenticate()
	require.NoError(t, err)
	assert.Equal(t, common.VerdictDone, verdict)
	assert.True(t, ctx.IsComplete())

	// late tokens are ignored once complete
	ctx.GiveInputToken([]byte("late"))
	verdict, err = ctx.Authenticate()
	require.NoError(t, err)
	assert.Equal(t, common.VerdictDone, verdict)
}

func TestMalformedChallenge(t *testing.T) {
	ctx := New()
	require.NoError(t, ctx.SetupClient(common.ContextConfig{
		Identity: common.NewIdentity("alice@example.com", "", "hunter2"),
	}))

	_, err := ctx.Authenticate()
	require.NoError(t, err)
	ctx.TakeOutputToken()

	ctx.GiveInputToken([]byte("definitely not an NTLM message"))
	_, err = ctx.Authenticate()
	assert.Error(t, err)

	var authErr *common.AuthError
	assert.True(t, errors.As(err, &authErr))
}
