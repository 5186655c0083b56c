package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff-service/internal/models"
	"takeoff-service/internal/takeoff"
)

func TestRemoteStrategyConvertsBundle(t *testing.T) {
	elements := []models.ElementRecord{
		{ID: 1, TypeID: models.TypeWall, BoundingSize: models.BoundingSize{Width: 300, Height: 200, Depth: 2700}, Area: 0.81, HasBounds: true},
		{ID: 2, TypeID: models.TypeWall, BoundingSize: models.BoundingSize{Width: 300, Height: 200, Depth: 2700}, Area: 0.81, HasBounds: true},
	}
	bundle := models.Bundle{
		FileName:  "model.json",
		Hash:      "abc",
		MeshCount: 2,
		Elements:  elements,
		Materials: takeoff.Aggregate(elements),
	}

	var gotName string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/models/process", r.URL.Path)
		gotName = r.Header.Get("X-File-Name")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(bundle)
	}))
	defer srv.Close()

	s := &RemoteStrategy{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}
	res, err := s.Run(context.Background(), File{Name: "model.json", Data: []byte(`{"x":1}`)}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "model.json", gotName)
	assert.Equal(t, `{"x":1}`, string(gotBody))
	assert.Equal(t, 2, res.MeshCount)
	assert.Len(t, res.Elements, 2)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, 2, res.Groups[0].Count)
	assert.Equal(t, []int{1, 2}, res.Index.Lookup(models.TypeWall))
	assert.Empty(t, res.Units)
}

func TestRemoteStrategyErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		suggest string
	}{
		{"too large", http.StatusRequestEntityTooLarge, `{"error":true,"code":"size_limit","suggestAlternate":"worker"}`, KindSizeLimit, "worker"},
		{"unsupported", http.StatusBadRequest, `{"error":true,"message":"unsupported"}`, KindUnsupported, ""},
		{"server error", http.StatusInternalServerError, `{"error":true,"message":"boom"}`, KindFailed, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := (&RemoteStrategy{BaseURL: srv.URL}).Run(context.Background(), File{Name: "m.json", Data: []byte("{}")}, Options{})
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tc.kind, le.Kind)
			assert.Equal(t, tc.suggest, le.Suggest)
		})
	}
}
