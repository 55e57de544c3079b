package pagecontext

import (
	"errors"
	"strings"
	"testing"

	"page_capture/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	data   map[string][]byte
	putErr error
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) Get(key string) ([]byte, error) { return m.data[key], nil }

func (m *memStorage) Put(key string, value []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStorage) Close() error { return nil }

func element(tag, id, url string) entities.CapturedElement {
	return entities.CapturedElement{
		Tag:         tag,
		ID:          id,
		XPath:       `//*[@id="` + id + `"]`,
		CSSSelector: "#" + id,
		PageURL:     url,
	}
}

func TestAppend_PreservesOrder(t *testing.T) {
	s := NewStore(newMemStorage())
	e1 := element("input", "u", "https://x/login")
	e2 := element("input", "p", "https://x/login")

	s.Append("https://x/login", e1)
	s.Append("https://x/login", e2)

	assert.Equal(t, []entities.CapturedElement{e1, e2}, s.ElementsFor("https://x/login"))
}

func TestAppend_KeepsDuplicates(t *testing.T) {
	s := NewStore(newMemStorage())
	e := element("button", "go", "/start")

	s.Append("/start", e)
	s.Append("/start", e)

	assert.Len(t, s.ElementsFor("/start"), 2)
}

func TestPages_FirstSeenOrder(t *testing.T) {
	s := NewStore(newMemStorage())
	s.Append("/b", element("a", "1", "/b"))
	s.Append("/a", element("a", "2", "/a"))
	s.Append("/b", element("a", "3", "/b"))

	assert.Equal(t, []string{"/b", "/a"}, s.Pages())
	assert.True(t, s.Has("/a"))
	assert.False(t, s.Has("/c"))
}

func TestAppend_EmptyURLGoesToUnknown(t *testing.T) {
	s := NewStore(newMemStorage())
	s.Append("", element("a", "1", ""))

	assert.Equal(t, []string{UnknownPage}, s.Pages())
}

func TestElementsFor_ReturnsCopy(t *testing.T) {
	s := NewStore(newMemStorage())
	s.Append("/a", element("a", "1", "/a"))

	els := s.ElementsFor("/a")
	els[0].Tag = "mutated"

	assert.Equal(t, "a", s.ElementsFor("/a")[0].Tag)
}

func TestRemoveElement_LastElementRemovesPage(t *testing.T) {
	s := NewStore(newMemStorage())
	s.Append("/a", element("a", "1", "/a"))
	s.Append("/a", element("a", "2", "/a"))

	require.NoError(t, s.RemoveElement("/a", 0))
	assert.Equal(t, "2", s.ElementsFor("/a")[0].ID)

	require.NoError(t, s.RemoveElement("/a", 0))
	assert.False(t, s.Has("/a"))
	assert.Empty(t, s.Pages())

	assert.ErrorIs(t, s.RemoveElement("/a", 0), ErrUnknownPage)
}

func TestRemoveElement_OutOfRange(t *testing.T) {
	s := NewStore(newMemStorage())
	s.Append("/a", element("a", "1", "/a"))

	assert.Error(t, s.RemoveElement("/a", 1))
	assert.Error(t, s.RemoveElement("/a", -1))
}

func TestRemove(t *testing.T) {
	s := NewStore(newMemStorage())
	s.Append("/a", element("a", "1", "/a"))
	s.Append("/b", element("a", "2", "/b"))

	assert.True(t, s.Remove("/a"))
	assert.False(t, s.Remove("/a"))
	assert.Equal(t, []string{"/b"}, s.Pages())
}

func TestSaveLoad_RoundTripKeepsPageOrder(t *testing.T) {
	storage := newMemStorage()
	s := NewStore(storage)
	s.Append("https://z/", element("a", "1", "https://z/"))
	s.Append("https://a/", element("b", "2", "https://a/"))
	s.Append("https://m/", element("c", "3", "https://m/"))
	require.NoError(t, s.Save())

	loaded := NewStore(storage)
	require.NoError(t, loaded.Load())

	assert.Equal(t, s.Pages(), loaded.Pages())
	assert.Equal(t, s.Snapshot(), loaded.Snapshot())
}

func TestMarshalJSON_ObjectLayout(t *testing.T) {
	s := NewStore(newMemStorage())
	s.Append("/b", entities.CapturedElement{Tag: "a", PageURL: "/b"})
	s.Append("/a", entities.CapturedElement{Tag: "p", PageURL: "/a"})

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"/b": [{"tag":"a","id":"","name":"","type":"","classes":"","text":"","xpath":"","cssSelector":"","outerHTML":"","pageUrl":"/b"}],
		"/a": [{"tag":"p","id":"","name":"","type":"","classes":"","text":"","xpath":"","cssSelector":"","outerHTML":"","pageUrl":"/a"}]
	}`, string(data))
	assert.Less(t, strings.Index(string(data), `"/b"`), strings.Index(string(data), `"/a"`))
}

func TestLoad_SkipsEmptyPagesAndMissingState(t *testing.T) {
	storage := newMemStorage()
	s := NewStore(storage)
	require.NoError(t, s.Load())
	assert.Zero(t, s.Len())

	storage.data[StorageKey] = []byte(`{"/empty": [], "/full": [{"tag":"a"}]}`)
	require.NoError(t, s.Load())
	assert.Equal(t, []string{"/full"}, s.Pages())
}

func TestLoad_RejectsNonObject(t *testing.T) {
	storage := newMemStorage()
	storage.data[StorageKey] = []byte(`[1,2]`)

	assert.Error(t, NewStore(storage).Load())
}

func TestSave_PropagatesStorageError(t *testing.T) {
	storage := newMemStorage()
	storage.putErr = errors.New("disk full")
	s := NewStore(storage)
	s.Append("/a", element("a", "1", "/a"))

	assert.ErrorContains(t, s.Save(), "disk full")
}
