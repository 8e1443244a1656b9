package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardAnalyticsAndAudit(t *testing.T) {
	s := newServer(t)
	treeID := s.tree("Doe")
	s.member(echo.Map{"firstName": "Ann", "lastName": "Doe", "gender": "female", "familyTreeId": treeID})
	s.contact()

	rec := s.doAs("", http.MethodGet, "/api/admin/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"users": 1.0, "trees": 1.0, "members": 1.0,
		"contacts": 1.0, "pendingContacts": 1.0, "pendingModeration": 0.0,
	}, decode(t, rec))

	rec = s.do(http.MethodGet, "/api/admin/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a := decode(t, rec)
	assert.EqualValues(t, 1, a["treeStats"].(map[string]interface{})["total"])
	members := a["memberStats"].(map[string]interface{})
	assert.EqualValues(t, 1, members["total"])
	assert.Equal(t, []interface{}{map[string]interface{}{"_id": "female", "count": 1.0}}, members["genderDistribution"])

	rec = s.do(http.MethodGet, "/api/admin/audit?entity=tree", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode(t, rec)["events"].([]interface{})
	require.Len(t, events, 1)
	event := events[0].(map[string]interface{})
	assert.Equal(t, "create", event["action"])
	assert.Equal(t, "root@familytree.com", event["actorEmail"])
}

func upload(t *testing.T, s *server, field, filename, contentType, data string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestUploadEndpoint(t *testing.T) {
	s := newServer(t)

	rec := upload(t, s, "file", "me.png", "image/png", "\x89PNG fake")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	path := decode(t, rec)["path"].(string)
	assert.True(t, strings.HasPrefix(path, "/uploads/members/"), path)
	assert.True(t, strings.HasSuffix(path, ".png"), path)

	rec = upload(t, s, "file", "notes.txt", "text/plain", "hello")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only image files are allowed", decode(t, rec)["error"])

	rec = upload(t, s, "", "", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decode(t, rec)["error"])
}
