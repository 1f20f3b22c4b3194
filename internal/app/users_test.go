package app

import (
	"context"
	"errors"
	"testing"
)

func TestUpdateProfilePartial(t *testing.T) {
	env := newTestEnv(t)
	user, _ := registerVerified(t, env, "alice@example.com")

	bio := "surfer"
	first := "Alice"
	updated, err := env.app.UpdateProfile(user, ProfileInput{Bio: &bio, FirstName: &first})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Bio != "surfer" || updated.FirstName != "Alice" {
		t.Fatalf("profile = %q/%q", updated.Bio, updated.FirstName)
	}
	if updated.Username != user.Username {
		t.Fatalf("untouched field changed: %q -> %q", user.Username, updated.Username)
	}

	empty := " "
	if _, err := env.app.UpdateProfile(updated, ProfileInput{Username: &empty}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank username: got %v, want ErrValidation", err)
	}
}

func TestSetProfilePicture(t *testing.T) {
	env := newTestEnv(t)
	user, _ := registerVerified(t, env, "alice@example.com")
	ctx := context.Background()

	updated, err := env.app.SetProfilePicture(ctx, user, imageUpload("face.jpg"))
	if err != nil {
		t.Fatalf("set picture: %v", err)
	}
	if updated.ProfilePictureKey == "" || !env.objects.Has(updated.ProfilePictureKey) {
		t.Fatalf("picture not stored: %q", updated.ProfilePictureKey)
	}
	firstKey := updated.ProfilePictureKey

	// replacing drops the old object
	updated, err = env.app.SetProfilePicture(ctx, updated, imageUpload("face2.jpg"))
	if err != nil {
		t.Fatalf("replace picture: %v", err)
	}
	if env.objects.Has(firstKey) {
		t.Fatalf("old picture object survived replacement")
	}
	rc, _, _, err := env.app.OpenProfilePicture(ctx, updated.ID)
	if err != nil {
		t.Fatalf("open picture: %v", err)
	}
	rc.Close()

	if _, err := env.app.SetProfilePicture(ctx, updated, videoUpload("clip.mp4")); !errors.Is(err, ErrValidation) {
		t.Fatalf("non-image picture: got %v, want ErrValidation", err)
	}
}

func TestBlockUnblockAndToggle(t *testing.T) {
	env := newTestEnv(t)
	user, pair := registerVerified(t, env, "alice@example.com")
	admin, err := env.app.CreateAdmin("admin@example.com", "admin", "s3cret-pass")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	ctx := context.Background()

	blocked, err := env.app.SetUserActive(admin, user.ID, false)
	if err != nil {
		t.Fatalf("block user: %v", err)
	}
	if blocked.Active {
		t.Fatalf("user still active after block")
	}
	// blocked accounts lose access immediately
	if _, err := env.app.Authenticate(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("blocked user token still resolves: %v", err)
	}
	if _, _, err := env.app.Login(ctx, "alice@example.com", "s3cret-pass"); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("blocked login: got %v, want ErrInactiveAccount", err)
	}

	toggled, err := env.app.ToggleUserActive(admin, user.ID)
	if err != nil {
		t.Fatalf("toggle user: %v", err)
	}
	if !toggled.Active {
		t.Fatalf("toggle did not reactivate")
	}
	if _, _, err := env.app.Login(ctx, "alice@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("login after unblock: %v", err)
	}

	if _, err := env.app.SetUserActive(admin, admin.ID, false); !errors.Is(err, ErrValidation) {
		t.Fatalf("self-block: got %v, want ErrValidation", err)
	}
	if _, err := env.app.SetUserActive(admin, "missing", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("block missing user: got %v, want ErrNotFound", err)
	}
}

func TestContentByUserVisibility(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := registerVerified(t, env, "alice@example.com")
	viewer, _ := registerVerified(t, env, "bob@example.com")

	pending := submitVideo(t, env, owner, "pending clip")
	approved := submitVideo(t, env, owner, "approved clip")
	if _, err := env.app.Approve(approved.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_ = pending

	mine, err := env.app.ContentByUser(owner, owner.ID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("owner sees %d items (%v), want 2", len(mine), err)
	}
	theirs, err := env.app.ContentByUser(viewer, owner.ID)
	if err != nil {
		t.Fatalf("viewer list: %v", err)
	}
	if len(theirs) != 1 || theirs[0].ID != approved.ID {
		t.Fatalf("viewer sees %v, want only approved", theirs)
	}
	if _, err := env.app.ContentByUser(viewer, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: got %v, want ErrNotFound", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := registerVerified(t, env, "alice@example.com")
	admin, err := env.app.CreateAdmin("admin@example.com", "admin", "s3cret-pass")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	ctx := context.Background()

	content := submitVideo(t, env, owner, "clip")
	if err := env.app.DeleteUser(ctx, admin, owner.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, ok, _ := env.store.GetUserByID(owner.ID); ok {
		t.Fatalf("user row survived delete")
	}
	if _, ok, _ := env.store.GetContent(content.ID); ok {
		t.Fatalf("owned content survived delete")
	}
	if env.objects.Has(content.MediaKeys[0]) {
		t.Fatalf("media object survived delete")
	}

	if err := env.app.DeleteUser(ctx, admin, admin.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("self delete: got %v, want ErrValidation", err)
	}
	if err := env.app.DeleteUser(ctx, admin, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing: got %v, want ErrNotFound", err)
	}
}

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t)
	registerVerified(t, env, "alice@example.com")
	registerVerified(t, env, "bob@example.com")

	found, err := env.app.SearchUsers("alice")
	if err != nil || len(found) != 1 {
		t.Fatalf("search = %v, %v; want one hit", found, err)
	}
	if found[0].Email != "alice@example.com" {
		t.Fatalf("hit = %q", found[0].Email)
	}
	if found, _ := env.app.SearchUsers("  "); len(found) != 0 {
		t.Fatalf("blank query returned results")
	}
}
