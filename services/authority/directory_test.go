package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/authority"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage/storagetest"
)

type diag struct {
	errors []error
	saved  []int
}

func (d *diag) Error(msg string, err error) { d.errors = append(d.errors, err) }
func (d *diag) Saved(count int)             { d.saved = append(d.saved, count) }

func TestDirectory_SaveThenList(t *testing.T) {
	d := &diag{}
	dir := authority.NewDirectory(storage.NewMemStore(authority.Namespace), d)

	res := dir.Save([]string{" a@x.com ", "", "b@y.com"})
	assert.True(t, res.OK)
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, dir.List())
	assert.Equal(t, []int{2}, d.saved)
}

func TestDirectory_StoredFormat(t *testing.T) {
	store := storage.NewMemStore(authority.Namespace)
	dir := authority.NewDirectory(store, &diag{})

	dir.Save([]string{"ops@dam.gov", "  ", "engineer@dam.gov"})
	kv, err := store.Get(authority.Key)
	assert.NoError(t, err)
	assert.Equal(t, "ops@dam.gov, engineer@dam.gov", string(kv.Value))
}

func TestDirectory_ListEmptyWhenNothingStored(t *testing.T) {
	d := &diag{}
	dir := authority.NewDirectory(storage.NewMemStore(authority.Namespace), d)

	list := dir.List()
	assert.NotNil(t, list)
	assert.Empty(t, list)
	// a missing key is not an error worth reporting
	assert.Empty(t, d.errors)
}

func TestDirectory_ListIgnoresBlankEntries(t *testing.T) {
	store := storage.NewMemStore(authority.Namespace)
	store.Put(authority.Key, []byte(" , a@x.com,,  ,b@y.com ,"))
	dir := authority.NewDirectory(store, &diag{})

	assert.Equal(t, []string{"a@x.com", "b@y.com"}, dir.List())
}

func TestDirectory_StorageUnavailable(t *testing.T) {
	d := &diag{}
	dir := authority.NewDirectory(storagetest.FailingStore{}, d)

	assert.Equal(t, []string{}, dir.List())
	assert.Equal(t, authority.SaveResult{OK: false}, dir.Save([]string{"a@x.com"}))
	assert.Len(t, d.errors, 2)
}

func TestDirectory_QuotaExceeded(t *testing.T) {
	store := storage.NewMemStore(authority.Namespace)
	store.Put(authority.Key, []byte("a@x.com"))
	dir := authority.NewDirectory(storagetest.ReadOnlyStore{Interface: store}, &diag{})

	assert.False(t, dir.Save([]string{"b@y.com"}).OK)
	// the previous list is still readable
	assert.Equal(t, []string{"a@x.com"}, dir.List())
}

func TestDirectory_SaveListIdempotent(t *testing.T) {
	dir := authority.NewDirectory(storagetest.NewBolt(t, authority.Namespace), &diag{})

	dir.Save([]string{"  a@x.com", "b@y.com  ", "a@x.com"})
	first := dir.List()
	assert.True(t, dir.Save(first).OK)
	assert.Equal(t, first, dir.List())
	// duplicates are kept
	assert.Equal(t, []string{"a@x.com", "b@y.com", "a@x.com"}, first)
}

func TestDirectory_SaveEmptyClearsList(t *testing.T) {
	dir := authority.NewDirectory(storage.NewMemStore(authority.Namespace), &diag{})
	dir.Save([]string{"a@x.com"})
	assert.True(t, dir.Save(nil).OK)
	assert.Empty(t, dir.List())
}

func TestDirectory_Resolve(t *testing.T) {
	dir := authority.NewDirectory(storage.NewMemStore(authority.Namespace), &diag{})
	dir.Save([]string{"stored@dam.gov"})

	assert.Equal(t, []string{"stored@dam.gov"}, dir.Resolve(nil))
	assert.Equal(t, []string{"stored@dam.gov"}, dir.Resolve([]string{" "}))
	assert.Equal(t, []string{"explicit@dam.gov"}, dir.Resolve([]string{"explicit@dam.gov"}))
}

type storageService struct {
	store storage.Interface
}

func (s storageService) Store(string) storage.Interface { return s.store }

func TestService_OpenUsesStorage(t *testing.T) {
	store := storage.NewMemStore(authority.Namespace)
	s := authority.NewService(&diag{})
	assert.Error(t, s.Open())

	s.StorageService = storageService{store: store}
	assert.NoError(t, s.Open())
	defer s.Close()

	assert.True(t, s.Save([]string{"ops@dam.gov"}).OK)
	assert.Equal(t, []string{"ops@dam.gov"}, s.List())
	assert.Equal(t, []string{"ops@dam.gov"}, s.Resolve(nil))
	assert.Equal(t, []string{"chief@dam.gov"}, s.Resolve([]string{" chief@dam.gov"}))

	kv, err := store.Get(authority.Key)
	assert.NoError(t, err)
	assert.Equal(t, "ops@dam.gov", string(kv.Value))
}
