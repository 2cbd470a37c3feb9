package pincode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeListStore struct {
	pins map[string]bool
}

func newFakeListStore(pins ...string) *fakeListStore {
	s := &fakeListStore{pins: make(map[string]bool)}
	for _, p := range pins {
		s.pins[p] = true
	}
	return s
}

func (s *fakeListStore) List(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.pins))
	for p := range s.pins {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeListStore) Add(_ context.Context, pin string) error {
	s.pins[pin] = true
	return nil
}

func (s *fakeListStore) Remove(_ context.Context, pin string) error {
	delete(s.pins, pin)
	return nil
}

func TestAdminList(t *testing.T) {
	h := &AdminHandler{Store: newFakeListStore("560001", "110001")}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/admin/pincodes", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"pincodes":["110001","560001"]}`, rr.Body.String())
}

func TestAdminAddRejectsMalformed(t *testing.T) {
	store := newFakeListStore()
	h := &AdminHandler{Store: store}
	for _, bad := range []string{"12345", "1234567", "12345a", ""} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/pincodes", strings.NewReader(`{"pincode":"`+bad+`"}`))
		h.Add(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code, "pincode %q should be rejected", bad)
	}
	require.Empty(t, store.pins)
}

func TestAdminAddTwiceKeepsSetSemantics(t *testing.T) {
	store := newFakeListStore()
	h := &AdminHandler{Store: store}

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/pincodes", strings.NewReader(`{"pincode":"560001"}`))
		h.Add(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"560001"}, list)
}

func TestAdminRemove(t *testing.T) {
	store := newFakeListStore("560001", "110001")
	h := &AdminHandler{Store: store}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/admin/pincodes?pincode=560001", nil)
	h.Remove(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"pincodes":["110001"]}`, rr.Body.String())
}
