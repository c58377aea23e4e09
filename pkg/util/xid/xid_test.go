package xid

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sony/sonyflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedMachine(id uint16) Option {
	return WithMachineID(func() (uint16, error) { return id, nil })
}

func TestGenerator_Next(t *testing.T) {
	g, err := NewGenerator(fixedMachine(7))
	require.NoError(t, err)

	prev := int64(0)
	for range 100 {
		id, err := g.Next()
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		assert.Equal(t, int64(7), id&0xFFFF)
		prev = id
	}
}

func TestGenerator_Concurrent(t *testing.T) {
	g, err := NewGenerator(fixedMachine(1))
	require.NoError(t, err)

	const goroutines, per = 8, 200
	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, goroutines*per)
		wg   sync.WaitGroup
	)
	for range goroutines {
		wg.Go(func() {
			for range per {
				id, err := g.Next()
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Len(t, seen, goroutines*per)
}

func TestGenerator_NextStringRoundTrip(t *testing.T) {
	g, err := NewGenerator(fixedMachine(2))
	require.NoError(t, err)

	s, err := g.NextString()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(s), 13)

	id, err := Parse(s)
	require.NoError(t, err)
	upper, err := Parse(strings.ToUpper(s))
	require.NoError(t, err)
	assert.Equal(t, id, upper)
}

func TestNewGenerator_Errors(t *testing.T) {
	errBoom := errors.New("boom")
	_, err := NewGenerator(WithMachineID(func() (uint16, error) { return 0, errBoom }))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewGenerator(fixedMachine(3), WithCheckMachineID(func(id uint16) bool { return id != 3 }))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// nil 选项与 nil 函数回落到默认值
	t.Setenv(EnvMachineID, "9")
	g, err := NewGenerator(nil, WithMachineID(nil))
	require.NoError(t, err)
	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(9), id&0xFFFF)
}

func TestGenerator_NextErrors(t *testing.T) {
	g := &Generator{next: func() (int64, error) { return 0, sonyflake.ErrOverTimeLimit }}
	_, err := g.Next()
	assert.ErrorIs(t, err, ErrOverTimeLimit)

	errOther := errors.New("other")
	g = &Generator{next: func() (int64, error) { return 0, errOther }}
	_, err = g.NextString()
	assert.ErrorIs(t, err, errOther)
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "!!", "0", "-1z"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidID, s)
	}
}

func TestDefaultMachineID(t *testing.T) {
	t.Setenv(EnvMachineID, "65535")
	id, err := DefaultMachineID()
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), id)

	t.Setenv(EnvMachineID, "65536")
	_, err = DefaultMachineID()
	assert.Error(t, err)

	t.Setenv(EnvMachineID, "")
	orig := osHostname
	t.Cleanup(func() { osHostname = orig })

	osHostname = func() (string, error) { return "worker-a", nil }
	id, err = DefaultMachineID()
	require.NoError(t, err)
	assert.Equal(t, hashToMachineID("worker-a"), id)

	osHostname = func() (string, error) { return "", nil }
	_, err = DefaultMachineID()
	assert.Error(t, err)

	osHostname = func() (string, error) { return "", errors.New("no hostname") }
	_, err = DefaultMachineID()
	assert.Error(t, err)
}

func TestHashToMachineID_Stable(t *testing.T) {
	assert.Equal(t, hashToMachineID("pod-0"), hashToMachineID("pod-0"))
	assert.NotEqual(t, hashToMachineID("pod-0"), hashToMachineID("pod-1"))
}
