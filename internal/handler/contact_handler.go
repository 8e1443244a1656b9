package handler

import (
	"net/http"

	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/labstack/echo/v4"
)

var contactColumns = []column{
	{"_id", "ID"},
	{"firstName", "First Name"},
	{"lastName", "Last Name"},
	{"email", "Email"},
	{"phone", "Phone"},
	{"subject", "Subject"},
	{"message", "Message"},
	{"status", "Status"},
	{"repliedAt", "Replied At"},
	{"createdAt", "Created At"},
}

func (h *Handler) ListContacts(c echo.Context) error {
	f := service.ContactFilter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
		Date:   c.QueryParam("date"),
	}
	contacts, pg, err := h.svc.Contacts.List(c.Request().Context(), f, page(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, "contacts", contacts, pg, contactColumns)
}

func (h *Handler) GetContact(c echo.Context) error {
	contact, err := h.svc.Contacts.Get(c.Request().Context(), idParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"contact": contact})
}

// SubmitContact serves the public contact form and the admin create form
func (h *Handler) SubmitContact(c echo.Context) error {
	var in service.ContactInput
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	contact, err := h.svc.Contacts.Create(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Contact submitted successfully", "contact": contact})
}

func (h *Handler) UpdateContact(c echo.Context) error {
	var req struct {
		ContactID uint   `json:"contactId"`
		Status    string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}
	contact, err := h.svc.Contacts.UpdateStatus(c.Request().Context(), actor(c), req.ContactID, req.Status)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"contact": contact})
}

func (h *Handler) DeleteContact(c echo.Context) error {
	if err := h.svc.Contacts.Delete(c.Request().Context(), actor(c), idParam(c, "contactId", "id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *Handler) ReplyContact(c echo.Context) error {
	var req struct {
		ContactID uint   `json:"contactId"`
		Message   string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}
	contact, err := h.svc.Contacts.Reply(c.Request().Context(), actor(c), req.ContactID, req.Message)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Reply sent successfully", "contact": contact})
}
