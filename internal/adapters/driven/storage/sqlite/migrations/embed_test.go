package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_Embedded(t *testing.T) {
	all, err := Pending(0)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Contains(t, all[0].SQL, "CREATE TABLE IF NOT EXISTS chunks")

	none, err := Pending(all[len(all)-1].Version)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPending_OrdersAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql": {Data: []byte("SELECT 10;")},
		"002_next.up.sql":  {Data: []byte("SELECT 2;")},
		"001_first.up.sql": {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("ignored")},
	}

	got, err := pending(fsys, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Version)
	assert.Equal(t, "010_later.up.sql", got[1].Name)
}

func TestPending_BadName(t *testing.T) {
	_, err := pending(fstest.MapFS{"init.up.sql": {Data: []byte("SELECT 1;")}}, 0)
	assert.Error(t, err)
}
