package mongo

import (
	"testing"

	"github.com/stretchr/testify/require"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
)

func TestNewArchiveRequiresClient(t *testing.T) {
	_, err := NewArchive(Options{Database: "conductor"})
	require.Error(t, err)
}

func TestNewArchiveRequiresDatabase(t *testing.T) {
	_, err := NewArchive(Options{Client: &mongodriver.Client{}})
	require.Error(t, err)
}
