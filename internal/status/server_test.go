package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmapap/wmap-ap/internal/ap"
)

func testAP(t *testing.T) *ap.AP {
	t.Helper()
	a := ap.New()
	bss, err := ap.NewBSS([6]byte{1, 2, 3, 4, 5, 6}, "test-net", "password123", nil)
	require.NoError(t, err)
	a.AddBSS(bss)
	return a
}

func TestHandleHealthz(t *testing.T) {
	s := NewServer(":0", testAP(t), NewHub(nil), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.handleHealthz(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStationsReturnsKnownBSS(t *testing.T) {
	a := testAP(t)
	bss := a.Primary()
	bss.EnsureStation([6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff})

	s := NewServer(":0", a, NewHub(nil), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stations", nil)
	s.handleStations(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []bssView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "test-net", views[0].SSID)
	require.Len(t, views[0].Stations, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", views[0].Stations[0].MAC)
}
