// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package rpch

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-auth/go-rpch/common"
	"github.com/golang-auth/go-rpch/httpframe"
	"github.com/golang-auth/go-rpch/registry"
)

// mockRound scripts the behaviour of one Authenticate call.
type mockRound struct {
	verdict  common.AuthVerdict
	token    []byte
	err      error
	complete bool // IsComplete becomes true after this round
}

type mockContext struct {
	pkg      string
	setupErr error

	cfg         common.ContextConfig
	setupDone   bool
	sawUser     string
	sawPassword string
	identity    *common.Identity
	released    int

	rounds   []mockRound
	round    int
	pending  []byte
	complete bool
	inputs   [][]byte
}

func (m *mockContext) SetupClient(cfg common.ContextConfig) error {
	m.cfg = cfg
	m.identity = cfg.Identity

	// a real engine copies what it needs before the driver wipes the
	// identity
	if cfg.Identity != nil {
		m.sawUser = cfg.Identity.User
		m.sawPassword = string(cfg.Identity.Password)
	}

	m.setupDone = true
	return m.setupErr
}

func (m *mockContext) Authenticate() (common.AuthVerdict, error) {
	if m.round >= len(m.rounds) {
		return common.VerdictDone, nil
	}

	r := m.rounds[m.round]
	m.round++

	if r.err != nil {
		return 0, r.err
	}

	m.pending = r.token
	if r.complete {
		m.complete = true
	}

	return r.verdict, nil
}

func (m *mockContext) HaveOutputToken() bool {
	return m.pending != nil
}

func (m *mockContext) TakeOutputToken() []byte {
	t := m.pending
	m.pending = nil
	return t
}

func (m *mockContext) GiveInputToken(token []byte) {
	m.inputs = append(m.inputs, token)
}

func (m *mockContext) IsComplete() bool {
	return m.complete
}

func (m *mockContext) PackageName() string {
	if m.pkg != "" {
		return m.pkg
	}

	return "NTLM"
}

func (m *mockContext) Release() {
	m.released++
}

// nextMock is handed out by the MOCK/MOCKNOCB package factories; tests
// assign it before calling InitAuth.
var nextMock *mockContext

func init() {
	factory := func() common.SecurityContext { return nextMock }

	registry.Register("MOCK", factory, common.PackageProps{
		Features: common.FeatChannelBindings,
	})
	registry.Register("MOCKNOCB", factory, common.PackageProps{})
}

func newTestChannel(t *testing.T, dir Direction, opts ...ChannelOption) (*Channel, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	c, err := NewChannel(dir, buf, httpframe.NewContext("gateway.example.com", ""), opts...)
	require.NoError(t, err)

	return c, buf
}

func TestNewChannel(t *testing.T) {
	http := httpframe.NewContext("gw", "")

	_, err := NewChannel(DirectionIn, nil, http)
	assert.ErrorIs(t, err, common.ErrNoContext)

	_, err = NewChannel(DirectionIn, &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, common.ErrNoContext)

	c, err := NewChannel(DirectionOut, &bytes.Buffer{}, http, WithReplacement())
	require.NoError(t, err)
	assert.Equal(t, DirectionOut, c.Direction())

	// a replacement inbound channel makes no sense
	_, err = NewChannel(DirectionIn, &bytes.Buffer{}, http, WithReplacement())
	assert.Error(t, err)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "RPC_IN_DATA", DirectionIn.Method())
	assert.Equal(t, "RPC_OUT_DATA", DirectionOut.Method())
	assert.Equal(t, "in", DirectionIn.String())
	assert.Equal(t, "out", DirectionOut.String())
}

func TestLogging(t *testing.T) {
	sb := strings.Builder{}
	loggerD := log.New(&sb, "testD: ", 0)
	loggerI := log.New(&sb, "testI: ", 0)
	loggerW := log.New(&sb, "testW: ", 0)
	loggerE := log.New(&sb, "testE: ", 0)

	c, _ := newTestChannel(t, DirectionIn,
		WithDebugLogger(loggerD),
		WithInfoLogger(loggerI),
		WithWarnLogger(loggerW),
		WithErrorLogger(loggerE),
	)

	c.Debugf("debug testing 1 2 3")
	c.Infof("info testing 1 2 3")
	c.Warnf("warn testing 1 2 3")
	c.Errorf("error testing 1 2 3")

	assert.Contains(t, sb.String(), "testD: debug testing 1 2 3\n")
	assert.Contains(t, sb.String(), "testI: info testing 1 2 3\n")
	assert.Contains(t, sb.String(), "testW: warn testing 1 2 3\n")
	assert.Contains(t, sb.String(), "testE: error testing 1 2 3\n")
}

func TestIsConnectionFatal(t *testing.T) {
	assert.True(t, IsConnectionFatal(common.ErrCancelled))
	assert.True(t, IsConnectionFatal(&common.AuthError{Package: "NTLM", Err: assert.AnError}))
	assert.False(t, IsConnectionFatal(assert.AnError))
	assert.False(t, IsConnectionFatal(common.ErrTokenTooLarge))
}
