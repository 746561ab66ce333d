package messaging

import (
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus_Delivers(t *testing.T) {
	bus := NewLocalBus()

	var got atomic.Value
	bus.Handle("activity.logged", func(data []byte) error {
		var v map[string]string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		got.Store(v["action"])
		return nil
	})

	require.NoError(t, bus.Publish("activity.logged", map[string]string{"action": "sorteo.draw_executed"}))
	bus.Wait()

	assert.Equal(t, "sorteo.draw_executed", got.Load())
}

func TestLocalBus_DropsUnknownSubject(t *testing.T) {
	bus := NewLocalBus()
	assert.NoError(t, bus.Publish("nobody.listens", struct{}{}))
	bus.Wait()
}

func TestLocalBus_MarshalError(t *testing.T) {
	bus := NewLocalBus()
	assert.Error(t, bus.Publish("x", make(chan int)))
}
