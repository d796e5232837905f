package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, srv *httptest.Server, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCreateRoom(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)

	room := createTestRoom(t, srv, "lobby", "alice")

	_, err := uuid.Parse(room.ID)
	req.NoError(err, "room id must be a valid uuid")
	req.Equal("lobby", room.Name)
	req.Equal("alice", room.Creator)
	req.Equal([]string{"alice"}, room.Members, "creator is a member at creation")
}

func TestCreateRoomValidatesInput(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)

	resp := postJSON(t, srv, "/rooms", map[string]string{"name": "nameless"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAddMember(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)
	room := createTestRoom(t, srv, "lobby", "alice")

	resp := postJSON(t, srv, "/rooms/"+room.ID+"/members", addMemberRequest{Username: "bob"})
	req.Equal(http.StatusOK, resp.StatusCode)

	var updated roomResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&updated))
	req.Equal([]string{"alice", "bob"}, updated.Members)
}

func TestAddMemberIsIdempotent(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)
	room := createTestRoom(t, srv, "lobby", "alice")

	resp := postJSON(t, srv, "/rooms/"+room.ID+"/members", addMemberRequest{Username: "alice"})
	req.Equal(http.StatusOK, resp.StatusCode)

	var updated roomResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&updated))
	req.Equal([]string{"alice"}, updated.Members)
}

func TestAddMemberRejectsMalformedRoomID(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)

	// Never coerced into some zero-value room id.
	resp := postJSON(t, srv, "/rooms/not-a-uuid/members", addMemberRequest{Username: "bob"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAddMemberUnknownRoomIs404(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)

	resp := postJSON(t, srv, "/rooms/"+uuid.NewString()+"/members", addMemberRequest{Username: "bob"})
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestListRooms(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)
	createTestRoom(t, srv, "alpha", "alice")
	createTestRoom(t, srv, "beta", "bob")

	resp, err := http.Get(srv.URL + "/rooms")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var rooms []roomResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&rooms))
	req.Len(rooms, 2)
	req.Equal("alpha", rooms[0].Name)
	req.Equal("beta", rooms[1].Name)
}

func TestHealthEndpoint(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)

	resp, err := http.Get(srv.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, false)

	request, err := http.NewRequest(http.MethodOptions, srv.URL+"/rooms", strings.NewReader(""))
	req.NoError(err)
	resp, err := http.DefaultClient.Do(request)
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusNoContent, resp.StatusCode)
	req.Equal("*", resp.Header.Get("Access-Control-Allow-Origin"))
}
