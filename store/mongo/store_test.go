package mongo

import (
	"testing"

	"github.com/stretchr/testify/require"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
)

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Options{Database: "conductor"})
	require.Error(t, err)
}

func TestNewRequiresDatabase(t *testing.T) {
	_, err := New(Options{Client: &mongodriver.Client{}})
	require.Error(t, err)
}

func TestNewDefaultsTimeout(t *testing.T) {
	s, err := New(Options{Client: &mongodriver.Client{}, Database: "conductor"})
	require.NoError(t, err)
	require.Equal(t, defaultOpTimeout, s.timeout)
}
