package vault

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vaultA = "CA3D5KRYM6CB7OWQ6TWYRR3Z4T7GNZLKERYNZGGA5SOAOPIFY6YQGAXE"
	vaultB = "CDLZFC3SYJYDZT7K67VZ75HPJVIEUVNIXF47ZG2FB2RMQQVU2HHGCYSC"
)

func TestInMemoryActiveBinding(t *testing.T) {
	r := NewInMemory("")
	_, ok := r.Active()
	assert.False(t, ok)

	require.NoError(t, r.SetActive(vaultA))
	got, ok := r.Active()
	require.True(t, ok)
	assert.Equal(t, vaultA, got)
}

func TestSetActiveRejectsNonContractID(t *testing.T) {
	r := NewInMemory("")
	assert.Error(t, r.SetActive("GARBAGE"))
	_, ok := r.Active()
	assert.False(t, ok, "failed write must not rebind")
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	r, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r.RecordCreated(Vault{
		ContractID: vaultA,
		Name:       "My Vault",
		Symbol:     "MYV",
		CreatedAt:  time.Now(),
	}))
	require.NoError(t, r.Close())

	r, err = Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, ok := r.Active()
	require.True(t, ok)
	assert.Equal(t, vaultA, got)

	created, err := r.Created()
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "My Vault", created[0].Name)
}

func TestConcurrentReadersSingleWriter(t *testing.T) {
	r := NewInMemory(vaultA)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id, ok := r.Active()
				assert.True(t, ok)
				assert.Contains(t, []string{vaultA, vaultB}, id)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			require.NoError(t, r.SetActive(vaultB))
			require.NoError(t, r.SetActive(vaultA))
		}
	}()
	wg.Wait()
}
