package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberLifecycle(t *testing.T) {
	s := newServer(t)
	treeID := s.tree("Doe")

	mom := s.member(echo.Map{"firstName": "Mom", "lastName": "Doe", "gender": "female", "familyTreeId": itoa(treeID)})
	dad := s.member(echo.Map{
		"firstName": "Dad", "lastName": "Doe", "gender": "male", "familyTreeId": treeID,
		"spouseId": echo.Map{"_id": mom},
	})
	kid := s.member(echo.Map{
		"firstName": "Kid", "lastName": "Doe", "gender": "male", "familyTreeId": treeID,
		"parents": []interface{}{dad, itoa(mom)},
	})

	rec := s.do(http.MethodGet, "/api/admin/members/"+itoa(kid), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	member := decode(t, rec)["member"].(map[string]interface{})
	assert.Len(t, member["parents"], 2)
	assert.Equal(t, "Doe", member["treeId"].(map[string]interface{})["name"])

	rec = s.do(http.MethodDelete, "/api/admin/members/"+itoa(mom), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.True(t, strings.HasPrefix(body["error"].(string), "Member is referenced by other members"))
	assert.Len(t, body["dependencies"], 2)

	// clearing the spouse with null drops one dependency
	rec = s.do(http.MethodPut, "/api/admin/members", echo.Map{"_id": dad, "spouseId": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode(t, rec)["member"].(map[string]interface{})["spouse"])

	rec = s.do(http.MethodDelete, "/api/admin/members?id="+itoa(kid), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Member deleted successfully", decode(t, rec)["message"])

	rec = s.do(http.MethodDelete, "/api/admin/members/"+itoa(mom), nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/admin/members/"+itoa(mom), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Member not found", decode(t, rec)["error"])
}

func TestMemberCreateRejectsParentChildOverlap(t *testing.T) {
	s := newServer(t)
	treeID := s.tree("Doe")
	other := s.member(echo.Map{"firstName": "Other", "lastName": "Doe", "gender": "male", "familyTreeId": treeID})

	rec := s.do(http.MethodPost, "/api/admin/members", echo.Map{
		"firstName": "Jane", "lastName": "Doe", "gender": "female", "familyTreeId": treeID,
		"parents": []uint{other}, "children": []uint{other},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	violations := body["violations"].([]interface{})
	require.Len(t, violations, 1)
	assert.Equal(t, "parent_child_overlap", violations[0].(map[string]interface{})["rule"])

	var count int64
	require.NoError(t, s.db.Model(&model.Member{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMemberCreateMissingFields(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/admin/members", echo.Map{"firstName": "Jane"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Missing required fields: lastName, gender, familyTreeId", body["error"])
	assert.Equal(t, []interface{}{"lastName", "gender", "familyTreeId"}, body["missing"])

	var count int64
	require.NoError(t, s.db.Model(&model.Member{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMemberCreateMultipart(t *testing.T) {
	s := newServer(t)
	treeID := s.tree("Doe")
	dad := s.member(echo.Map{"firstName": "Dad", "lastName": "Doe", "gender": "male", "familyTreeId": treeID})
	mom := s.member(echo.Map{"firstName": "Mom", "lastName": "Doe", "gender": "female", "familyTreeId": treeID})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"firstName":    "Kid",
		"lastName":     "Doe",
		"gender":       "other",
		"familyTreeId": itoa(treeID),
		"birthDate":    "2010-04-01",
		"spouseId":     "",
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.WriteField("parents[]", itoa(dad)))
	require.NoError(t, w.WriteField("parents[]", itoa(mom)))

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="profileImage"; filename="kid.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/members", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	member := decode(t, rec)["member"].(map[string]interface{})
	assert.Len(t, member["parents"], 2)
	assert.Nil(t, member["spouse"])
	assert.True(t, strings.HasPrefix(member["profileImageUrl"].(string), "/uploads/members/"))
	assert.True(t, strings.HasPrefix(member["birthDate"].(string), "2010-04-01"))
}

func TestMemberCandidatesEndpoint(t *testing.T) {
	s := newServer(t)
	treeID := s.tree("Doe")
	dad := s.member(echo.Map{"firstName": "Dad", "lastName": "Doe", "gender": "male", "familyTreeId": treeID})
	s.member(echo.Map{"firstName": "Mom", "lastName": "Doe", "gender": "female", "familyTreeId": treeID})

	rec := s.do(http.MethodGet, "/api/admin/members/candidates?familyTreeId="+itoa(treeID)+"&gender=female&parents="+itoa(dad), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Len(t, body["parents"], 2)
	assert.Len(t, body["children"], 1)
	assert.Empty(t, body["spouses"])

	rec = s.do(http.MethodGet, "/api/admin/members/"+itoa(dad)+"/candidates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["spouses"], 1)

	rec = s.do(http.MethodGet, "/api/admin/members/candidates?familyTreeId="+itoa(treeID)+"&parents=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTreeDeleteReportsMembers(t *testing.T) {
	s := newServer(t)
	treeID := s.tree("Doe")
	s.member(echo.Map{"firstName": "A", "lastName": "Doe", "gender": "male", "familyTreeId": treeID})
	s.member(echo.Map{"firstName": "B", "lastName": "Doe", "gender": "female", "familyTreeId": treeID})

	rec := s.do(http.MethodDelete, "/api/admin/trees?id="+itoa(treeID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Tree deleted successfully", body["message"])
	assert.EqualValues(t, 2, body["deletedMembers"])

	rec = s.do(http.MethodGet, "/api/admin/trees/"+itoa(treeID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		in   string
		want []uint
	}{
		{"", nil},
		{"7", []uint{7}},
		{"1, 2,3", []uint{1, 2, 3}},
		{`[4,"5",{"_id":6}]`, []uint{4, 5, 6}},
	}
	for _, tt := range tests {
		got, err := parseIDs(tt.in)
		require.NoError(t, err, tt.in)
		if tt.want == nil {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseIDs("1,two")
	assert.Error(t, err)
}
