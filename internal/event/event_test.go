package event_test

import (
	"testing"

	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	market = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	alice  = common.HexToAddress("0x0000000000000000000000000000000000000001")
)

func TestNewCopiesValues(t *testing.T) {
	v := uint256.NewInt(5)
	ev := event.New(market, "Bought", []common.Address{alice}, v)
	v.SetUint64(7)

	require.Len(t, ev.Values, 1)
	assert.Equal(t, uint64(5), ev.Values[0].Uint64())
	assert.NotEqual(t, ev.ID.String(), event.New(market, "Bought", nil).ID.String())
}

func TestRecorderKeepsOrder(t *testing.T) {
	r := event.NewRecorder(nil)
	r.Publish(event.New(market, "Bought", nil), event.New(market, "Sold", nil))
	r.Publish(event.New(token, "Transfer", nil))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Bought", all[0].Name)
	assert.Equal(t, "Sold", all[1].Name)
	assert.Equal(t, "Transfer", all[2].Name)
	assert.Equal(t, 3, r.Len())
}

func TestRecorderSince(t *testing.T) {
	r := event.NewRecorder([]event.Event{event.New(market, "Bought", nil)})
	r.Publish(event.New(market, "Sold", nil))

	since := r.Since(1)
	require.Len(t, since, 1)
	assert.Equal(t, "Sold", since[0].Name)
	assert.Nil(t, r.Since(5))
	assert.Len(t, r.Since(-1), 2)
}

func TestRecorderFilter(t *testing.T) {
	r := event.NewRecorder(nil)
	r.Publish(
		event.New(market, "Transfer", nil),
		event.New(market, "Bought", nil),
		event.New(token, "Transfer", nil),
	)

	assert.Len(t, r.Filter(market), 2)
	assert.Len(t, r.Filter(market, "Bought"), 1)
	assert.Len(t, r.Filter(token, "Bought"), 0)
}

func TestDiscardDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { event.Discard.Publish(event.New(market, "Sold", nil)) })
}
