package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContact(t *testing.T, f *fixture) *model.Contact {
	t.Helper()
	c, err := f.svc.Contacts.Create(context.Background(), Actor{}, ContactInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "Jane@Example.com",
		Subject:   "Lost\r\npassword",
		Message:   "I cannot log in",
	})
	require.NoError(t, err)
	return c
}

func TestContactCreate(t *testing.T) {
	f := newFixture(t)
	c := newContact(t, f)
	assert.Equal(t, model.ContactPending, c.Status)
	assert.Equal(t, "jane@example.com", c.Email)

	_, err := f.svc.Contacts.Create(context.Background(), Actor{}, ContactInput{FirstName: "x"})
	assert.Equal(t, []string{"email", "subject", "message"}, asValidation(t, err).Missing)
}

func TestContactReply(t *testing.T) {
	f := newFixture(t)
	c := newContact(t, f)

	replied, err := f.svc.Contacts.Reply(context.Background(), f.actor, c.ID, "Reset it <here>\nThanks")
	require.NoError(t, err)
	assert.Equal(t, model.ContactReplied, replied.Status)
	require.NotNil(t, replied.RepliedAt)

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Jane Doe", msg.ToName)
	assert.Equal(t, "Resolved : Lost password", msg.Subject)
	assert.Equal(t, "<p>Dear Jane Doe,</p><p>Reset it &lt;here&gt;<br/>Thanks</p><p>Best regards,<br/>Family Tree Team</p>", msg.HTML)
	assert.Contains(t, msg.Text, "Reset it <here>\nThanks")

	stored, err := f.svc.Contacts.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContactReplied, stored.Status)
}

func TestContactReplyMailFailure(t *testing.T) {
	f := newFixture(t)
	c := newContact(t, f)
	f.mailer.err = errors.New("relay refused")

	_, err := f.svc.Contacts.Reply(context.Background(), f.actor, c.ID, "hello")
	var xerr *ExternalError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, "Failed to send reply", xerr.Message)

	stored, err := f.svc.Contacts.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContactPending, stored.Status)
	assert.Nil(t, stored.RepliedAt)

	_, err = f.svc.Contacts.Reply(context.Background(), f.actor, c.ID, "  ")
	assert.EqualError(t, err, "Missing contactId or message")
	_, err = f.svc.Contacts.Reply(context.Background(), f.actor, 999, "hi")
	assert.EqualError(t, err, "Contact not found")
}

func TestContactUpdateStatusAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := newContact(t, f)

	updated, err := f.svc.Contacts.UpdateStatus(ctx, f.actor, c.ID, "read")
	require.NoError(t, err)
	assert.Equal(t, model.ContactRead, updated.Status)
	assert.Nil(t, updated.RepliedAt)

	updated, err = f.svc.Contacts.UpdateStatus(ctx, f.actor, c.ID, "replied")
	require.NoError(t, err)
	assert.NotNil(t, updated.RepliedAt)

	_, err = f.svc.Contacts.UpdateStatus(ctx, f.actor, c.ID, "lost")
	asValidation(t, err)
	_, err = f.svc.Contacts.UpdateStatus(ctx, f.actor, 0, "read")
	assert.EqualError(t, err, "Missing contactId or status")

	require.NoError(t, f.svc.Contacts.Delete(ctx, f.actor, c.ID))
	assert.ErrorIs(t, f.svc.Contacts.Delete(ctx, f.actor, c.ID), ErrNotFound)
}
