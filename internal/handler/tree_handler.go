package handler

import (
	"net/http"

	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/labstack/echo/v4"
)

var treeColumns = []column{
	{"_id", "ID"},
	{"name", "Name"},
	{"description", "Description"},
	{"owner", "Owner"},
	{"isPublic", "Public"},
	{"memberCount", "Members"},
	{"shareLink", "Share Link"},
	{"createdAt", "Created At"},
	{"updatedAt", "Updated At"},
}

func (h *Handler) ListTrees(c echo.Context) error {
	f := service.TreeFilter{
		Search:   c.QueryParam("search"),
		IsPublic: c.QueryParam("isPublic"),
		Date:     c.QueryParam("date"),
		UserID:   c.QueryParam("userId"),
	}
	trees, pg, err := h.svc.Trees.List(c.Request().Context(), f, page(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, "trees", trees, pg, treeColumns)
}

func (h *Handler) GetTree(c echo.Context) error {
	tree, err := h.svc.Trees.Get(c.Request().Context(), idParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tree": tree})
}

// TreeOptions lists {_id, name} for every tree, for select inputs
func (h *Handler) TreeOptions(c echo.Context) error {
	trees, err := h.svc.Trees.Options(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trees": trees})
}

func (h *Handler) CreateTree(c echo.Context) error {
	var in service.TreeInput
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	tree, err := h.svc.Trees.Create(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"tree": tree})
}

func (h *Handler) UpdateTree(c echo.Context) error {
	var in service.TreeUpdate
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	tree, err := h.svc.Trees.Update(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tree": tree})
}

func (h *Handler) DeleteTree(c echo.Context) error {
	deleted, err := h.svc.Trees.Delete(c.Request().Context(), actor(c), idParam(c, "id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Tree deleted successfully", "deletedMembers": deleted})
}
