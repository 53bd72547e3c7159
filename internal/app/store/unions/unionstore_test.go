package unions_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	unionstore "github.com/unionhubhq/unionhub/internal/app/store/unions"
	"github.com/unionhubhq/unionhub/internal/domain/models"
	"github.com/unionhubhq/unionhub/internal/testutil"
)

func TestCreate_DuplicateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := unionstore.New(db)
	ctx := testutil.TestContext(t)

	creator := primitive.NewObjectID()
	if _, err := store.Create(ctx, "local-417", "Local 417", creator); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := store.Create(ctx, "local-417", "Another Local 417", primitive.NewObjectID())
	if !errors.Is(err, unionstore.ErrDuplicateCode) {
		t.Errorf("err = %v, want ErrDuplicateCode", err)
	}
}

func TestCreate_CreatorIsAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := unionstore.New(db)
	ctx := testutil.TestContext(t)

	creator := primitive.NewObjectID()
	union, err := store.Create(ctx, "local-417", "Local 417", creator)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !union.HasMember(creator) {
		t.Error("creator not in member set")
	}
	if union.RoleOf(creator) != models.UnionRoleAdmin {
		t.Errorf("creator role = %q, want admin", union.RoleOf(creator))
	}
}

func TestJoin_IsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := unionstore.New(db)
	ctx := testutil.TestContext(t)

	creator := primitive.NewObjectID()
	joiner := primitive.NewObjectID()
	if _, err := store.Create(ctx, "local-417", "Local 417", creator); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := store.Join(ctx, "local-417", joiner); err != nil {
			t.Fatalf("Join #%d: %v", i+1, err)
		}
	}

	union, err := store.GetByCode(ctx, "local-417")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if len(union.MemberIDs) != 2 {
		t.Errorf("member count = %d, want 2 (join must not duplicate)", len(union.MemberIDs))
	}
	if union.RoleOf(joiner) != models.UnionRoleMember {
		t.Errorf("joiner role = %q, want member", union.RoleOf(joiner))
	}
}

func TestJoin_UnknownCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := unionstore.New(db)
	ctx := testutil.TestContext(t)

	err := store.Join(ctx, "no-such-union", primitive.NewObjectID())
	if !errors.Is(err, unionstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLeave_RemovesMemberAndRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := unionstore.New(db)
	ctx := testutil.TestContext(t)

	creator := primitive.NewObjectID()
	joiner := primitive.NewObjectID()
	if _, err := store.Create(ctx, "local-417", "Local 417", creator); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Join(ctx, "local-417", joiner); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := store.Leave(ctx, "local-417", joiner); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	union, err := store.GetByCode(ctx, "local-417")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if union.HasMember(joiner) {
		t.Error("member still in set after leave")
	}
	if _, has := union.Roles[joiner.Hex()]; has {
		t.Error("role entry not dropped on leave")
	}
}

func TestListByMember_StableCreationOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := unionstore.New(db)
	ctx := testutil.TestContext(t)

	member := primitive.NewObjectID()
	for _, code := range []string{"first-union", "second-union", "third-union"} {
		if _, err := store.Create(ctx, code, code, member); err != nil {
			t.Fatalf("Create %s: %v", code, err)
		}
	}

	unions, err := store.ListByMember(ctx, member)
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(unions) != 3 {
		t.Fatalf("unions = %d, want 3", len(unions))
	}
	want := []string{"first-union", "second-union", "third-union"}
	for i, u := range unions {
		if u.Code != want[i] {
			t.Errorf("unions[%d] = %q, want %q", i, u.Code, want[i])
		}
	}
}

func TestSetRole_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := unionstore.New(db)
	ctx := testutil.TestContext(t)

	creator := primitive.NewObjectID()
	if _, err := store.Create(ctx, "local-417", "Local 417", creator); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.SetRole(ctx, "local-417", creator, "overlord"); err == nil {
		t.Error("expected an error for an unknown union role")
	}
}
