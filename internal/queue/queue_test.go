package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDriver(t *testing.T) {
	tests := []struct {
		input   string
		want    Driver
		wantErr bool
	}{
		{"", DriverKafka, false},
		{"kafka", DriverKafka, false},
		{"amqp", DriverAMQP, false},
		{"memory", DriverMemory, false},
		{"nats", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDriver(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	cfg := DefaultConfig()

	c, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &KafkaClient{}, c)

	cfg.Driver = "amqp"
	c, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &AMQPClient{}, c)

	cfg.Driver = "memory"
	c, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryClient{}, c)

	cfg.Driver = "bogus"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"127.0.0.1:9092"}, cfg.Brokers)
	assert.Equal(t, "default", cfg.Group)
	assert.Equal(t, 1, cfg.Prefetch)
}
