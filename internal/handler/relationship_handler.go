package handler

import (
	"net/http"

	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/labstack/echo/v4"
)

var relationshipColumns = []column{
	{"_id", "ID"},
	{"member1", "Member 1"},
	{"member2", "Member 2"},
	{"relationshipType", "Relationship"},
	{"familyTree", "Family Tree"},
	{"createdAt", "Created At"},
}

func (h *Handler) ListRelationships(c echo.Context) error {
	f := service.RelationshipFilter{
		Search:           c.QueryParam("search"),
		RelationshipType: c.QueryParam("relationshipType"),
		FamilyTreeID:     c.QueryParam("familyTreeId"),
	}
	rels, pg, err := h.svc.Relationships.List(c.Request().Context(), f, page(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, "relationships", rels, pg, relationshipColumns)
}

func (h *Handler) GetRelationship(c echo.Context) error {
	rel, err := h.svc.Relationships.Get(c.Request().Context(), idParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"relationship": rel})
}

func (h *Handler) RelationshipOptions(c echo.Context) error {
	opts, err := h.svc.Relationships.Options(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

func (h *Handler) CreateRelationship(c echo.Context) error {
	var in service.RelationshipInput
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	rel, err := h.svc.Relationships.Create(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"relationship": rel})
}

func (h *Handler) UpdateRelationship(c echo.Context) error {
	var in service.RelationshipUpdate
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	rel, err := h.svc.Relationships.Update(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"relationship": rel})
}

func (h *Handler) DeleteRelationship(c echo.Context) error {
	if err := h.svc.Relationships.Delete(c.Request().Context(), actor(c), idParam(c, "id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
