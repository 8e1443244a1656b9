package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/labstack/echo/v4"
)

var memberColumns = []column{
	{"_id", "ID"},
	{"firstName", "First Name"},
	{"lastName", "Last Name"},
	{"gender", "Gender"},
	{"birthDate", "Birth Date"},
	{"deathDate", "Death Date"},
	{"treeId", "Family Tree"},
	{"parents", "Parents"},
	{"children", "Children"},
	{"spouse", "Spouse"},
	{"bio", "Bio"},
	{"profileImageUrl", "Profile Image"},
	{"createdAt", "Created At"},
	{"updatedAt", "Updated At"},
}

// flexID accepts an id as a JSON number, a numeric string or an {_id} object.
// Empty strings and null read as zero.
type flexID uint

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, string(b) == "null", string(b) == `""`:
		*f = 0
		return nil
	case b[0] == '{':
		var obj struct {
			ID flexID `json:"_id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*f = obj.ID
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return f.parse(s)
	default:
		return f.parse(string(b))
	}
}

func (f *flexID) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*f = flexID(n)
	return nil
}

type memberBody struct {
	ID           flexID          `json:"_id"`
	FirstName    *string         `json:"firstName"`
	LastName     *string         `json:"lastName"`
	Gender       *string         `json:"gender"`
	FamilyTreeID *flexID         `json:"familyTreeId"`
	BirthDate    *string         `json:"birthDate"`
	DeathDate    *string         `json:"deathDate"`
	Bio          *string         `json:"bio"`
	Parents      *[]flexID       `json:"parents"`
	Children     *[]flexID       `json:"children"`
	SpouseID     json.RawMessage `json:"spouseId"`
}

func (b memberBody) input() (service.MemberInput, error) {
	in := service.MemberInput{
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Gender:    b.Gender,
		BirthDate: b.BirthDate,
		DeathDate: b.DeathDate,
		Bio:       b.Bio,
	}
	if b.FamilyTreeID != nil {
		id := uint(*b.FamilyTreeID)
		in.FamilyTreeID = &id
	}
	in.Parents = idList(b.Parents)
	in.Children = idList(b.Children)
	if len(b.SpouseID) > 0 {
		var spouse flexID
		if err := spouse.UnmarshalJSON(b.SpouseID); err != nil {
			return in, err
		}
		id := uint(spouse)
		in.Spouse = &id
	}
	return in, nil
}

func idList(v *[]flexID) *[]uint {
	if v == nil {
		return nil
	}
	out := make([]uint, 0, len(*v))
	for _, id := range *v {
		out = append(out, uint(id))
	}
	return &out
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// memberForm reads a member from a multipart form. Only the fields present in
// the form are set. The returned closer releases the uploaded file.
func memberForm(c echo.Context) (uint, service.MemberInput, func(), error) {
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		return 0, service.MemberInput{}, noop, err
	}

	value := func(names ...string) *string {
		for _, n := range names {
			if vs, ok := form.Value[n]; ok && len(vs) > 0 {
				v := vs[0]
				return &v
			}
		}
		return nil
	}
	ids := func(names ...string) (*[]uint, error) {
		for _, n := range names {
			vs, ok := form.Value[n]
			if !ok {
				continue
			}
			out := []uint{}
			for _, v := range vs {
				parsed, err := parseIDs(v)
				if err != nil {
					return nil, err
				}
				out = append(out, parsed...)
			}
			return &out, nil
		}
		return nil, nil
	}

	in := service.MemberInput{
		FirstName: value("firstName"),
		LastName:  value("lastName"),
		Gender:    value("gender"),
		BirthDate: value("birthDate"),
		DeathDate: value("deathDate"),
		Bio:       value("bio"),
	}

	var id flexID
	if v := value("_id", "id"); v != nil {
		if err := id.parse(*v); err != nil {
			return 0, in, noop, err
		}
	}
	if v := value("familyTreeId"); v != nil {
		var tree flexID
		if err := tree.parse(*v); err != nil {
			return 0, in, noop, err
		}
		treeID := uint(tree)
		in.FamilyTreeID = &treeID
	}
	if v := value("spouseId", "spouse"); v != nil {
		var spouse flexID
		if err := spouse.parse(*v); err != nil {
			return 0, in, noop, err
		}
		spouseID := uint(spouse)
		in.Spouse = &spouseID
	}
	if in.Parents, err = ids("parents[]", "parents"); err != nil {
		return 0, in, noop, err
	}
	if in.Children, err = ids("children[]", "children"); err != nil {
		return 0, in, noop, err
	}

	files := form.File["profileImage"]
	if len(files) == 0 {
		return uint(id), in, noop, nil
	}
	img, closeFn, err := openImage(files[0])
	if err != nil {
		return 0, in, noop, err
	}
	in.Image = img
	return uint(id), in, closeFn, nil
}

// parseIDs reads a single id, a comma separated list or a JSON array
func parseIDs(v string) ([]uint, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	var list []flexID
	if strings.HasPrefix(v, "[") {
		if err := json.Unmarshal([]byte(v), &list); err != nil {
			return nil, err
		}
	} else {
		for _, part := range strings.Split(v, ",") {
			var id flexID
			if err := id.parse(part); err != nil {
				return nil, err
			}
			list = append(list, id)
		}
	}
	out := make([]uint, 0, len(list))
	for _, id := range list {
		out = append(out, uint(id))
	}
	return out, nil
}

func openImage(fh *multipart.FileHeader) (*service.ImageUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}

// readMember reads a member from either a multipart form or a JSON body
func readMember(c echo.Context) (uint, service.MemberInput, func(), error) {
	if isMultipart(c) {
		return memberForm(c)
	}
	var body memberBody
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return 0, service.MemberInput{}, func() {}, err
	}
	in, err := body.input()
	return uint(body.ID), in, func() {}, err
}

func (h *Handler) ListMembers(c echo.Context) error {
	f := service.MemberFilter{
		Search:       c.QueryParam("search"),
		FamilyTreeID: c.QueryParam("familyTreeId"),
		Gender:       c.QueryParam("gender"),
		BirthDate:    c.QueryParam("birthDate"),
		DeathDate:    c.QueryParam("deathDate"),
		CreatedAt:    c.QueryParam("createdAt"),
		UpdatedAt:    c.QueryParam("updatedAt"),
		SortField:    c.QueryParam("sortField"),
		SortOrder:    c.QueryParam("sortOrder"),
	}
	members, pg, err := h.svc.Members.List(c.Request().Context(), f, page(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, "members", members, pg, memberColumns)
}

func (h *Handler) GetMember(c echo.Context) error {
	member, err := h.svc.Members.Get(c.Request().Context(), idParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"member": member})
}

func (h *Handler) CreateMember(c echo.Context) error {
	_, in, done, err := readMember(c)
	defer done()
	if err != nil {
		return badBody(c, err)
	}
	member, err := h.svc.Members.Create(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"member": member})
}

// UpdateMember serves PUT /members with the id in the body and
// PUT /members/:id.
func (h *Handler) UpdateMember(c echo.Context) error {
	bodyID, in, done, err := readMember(c)
	defer done()
	if err != nil {
		return badBody(c, err)
	}
	id := idParam(c)
	if id == 0 {
		id = bodyID
	}
	member, err := h.svc.Members.Update(c.Request().Context(), actor(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"member": member})
}

func (h *Handler) DeleteMember(c echo.Context) error {
	if err := h.svc.Members.Delete(c.Request().Context(), actor(c), idParam(c, "id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Member deleted successfully"})
}

// MemberCandidates serves GET /members/:id/candidates and, for a member that
// is not saved yet, GET /members/candidates?familyTreeId=&gender=.
// parents and children override the current selections.
func (h *Handler) MemberCandidates(c echo.Context) error {
	cq := service.CandidateQuery{
		MemberID: idParam(c),
		Gender:   c.QueryParam("gender"),
	}
	if id, ok := query.Uint(c.QueryParam("familyTreeId")); ok {
		cq.FamilyTreeID = id
	}
	params := c.QueryParams()
	for name, dest := range map[string]**[]uint{"parents": &cq.Parents, "children": &cq.Children} {
		if _, ok := params[name]; !ok {
			continue
		}
		ids, err := parseIDs(params.Get(name))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid " + name})
		}
		*dest = &ids
	}

	candidates, err := h.svc.Members.Candidates(c.Request().Context(), cq)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, candidates)
}
