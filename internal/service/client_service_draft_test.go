package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

func TestClientDraftService_SaveUpdateList(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	sub, err := h.drafts.Observe(h.ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, receive(t, sub.Updates()))

	d, err := h.drafts.Save(h.ctx, models.PostInput{Title: " idea ", Images: []string{"x.png"}})
	require.NoError(t, err)
	assert.Equal(t, "idea", d.Title)
	assert.Equal(t, alice.ID, d.OwnerID)

	drafts := receive(t, sub.Updates())
	require.Len(t, drafts, 1)

	d, err = h.drafts.Update(h.ctx, d.LocalID, models.PostInput{Title: "better idea", Description: "details"})
	require.NoError(t, err)
	assert.Equal(t, "better idea", d.Title)
	assert.Equal(t, "details", d.Description)

	list, err := h.drafts.List(h.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "better idea", list[0].Title)

	require.NoError(t, h.drafts.Delete(h.ctx, d.LocalID))
	list, err = h.drafts.List(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClientDraftService_Publish_Offline(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	d, err := h.drafts.Save(h.ctx, models.PostInput{Title: "draft", Description: "body"})
	require.NoError(t, err)

	p, err := h.drafts.Publish(h.ctx, d.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "draft", p.Title)
	assert.Equal(t, "body", p.Description)
	assert.False(t, p.Synced)

	_, err = h.storages.Drafts.GetByID(h.ctx, d.LocalID)
	assert.ErrorIs(t, err, store.ErrNotFound, "черновик удаляется в той же транзакции")

	pending, err := h.storages.Posts.ListPending(h.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestClientDraftService_Publish_Online(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	d, err := h.drafts.Save(h.ctx, models.PostInput{Title: "draft"})
	require.NoError(t, err)

	h.adapter.EXPECT().CreatePost(gomock.Any(), gomock.Any()).Return(remotePost("srv-1", alice, "draft"), nil)

	p, err := h.drafts.Publish(h.ctx, d.LocalID)
	require.NoError(t, err)
	assert.True(t, p.Synced)
	assert.Equal(t, "srv-1", p.RemoteID())
}

func TestClientDraftService_OtherOwner(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)
	require.NoError(t, h.storages.Users.Upsert(h.ctx, bob))

	id, err := h.storages.Drafts.Insert(h.ctx, models.DraftPost{OwnerID: bob.ID, Title: "bob's"})
	require.NoError(t, err)

	_, err = h.drafts.Publish(h.ctx, id)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, h.drafts.Delete(h.ctx, id), ErrNotOwner)

	// неудачная публикация ничего не меняет
	_, err = h.storages.Drafts.GetByID(h.ctx, id)
	require.NoError(t, err)
}
