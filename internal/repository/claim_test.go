package repository

import (
	"game-discount-app/internal/model"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func seedClaim(t *testing.T, repo ClaimRepository, shop, email string, at time.Time) {
	t.Helper()
	err := repo.Create(ctx, &model.DiscountClaim{
		ID:          uuid.NewString(),
		Shop:        shop,
		Email:       email,
		Code:        "wincode10" + uuid.NewString()[:4],
		Percentage:  decimal.NewFromInt(10),
		OrderNumber: 345,
		CreatedAt:   at,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestClaimListNewestFirst(t *testing.T) {
	repo := NewClaimRepository(newTestDB(t))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedClaim(t, repo, "demo.myshopify.com", "a@example.com", base.Add(time.Duration(i)*time.Hour))
	}
	seedClaim(t, repo, "other.myshopify.com", "a@example.com", base)

	page, total, err := repo.List(ctx, "demo.myshopify.com", 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page))
	}
	if !page[0].CreatedAt.After(page[1].CreatedAt) {
		t.Error("expected newest first")
	}

	last, _, _ := repo.List(ctx, "demo.myshopify.com", 2, 4)
	if len(last) != 1 {
		t.Errorf("expected 1 row on last page, got %d", len(last))
	}
}

func TestClaimDeleteByEmail(t *testing.T) {
	repo := NewClaimRepository(newTestDB(t))
	now := time.Now()

	seedClaim(t, repo, "demo.myshopify.com", "gone@example.com", now)
	seedClaim(t, repo, "demo.myshopify.com", "gone@example.com", now)
	seedClaim(t, repo, "demo.myshopify.com", "stay@example.com", now)
	seedClaim(t, repo, "other.myshopify.com", "gone@example.com", now)

	deleted, err := repo.DeleteByEmail(ctx, "demo.myshopify.com", "gone@example.com")
	if err != nil {
		t.Fatalf("DeleteByEmail: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	_, demoTotal, _ := repo.List(ctx, "demo.myshopify.com", 10, 0)
	_, otherTotal, _ := repo.List(ctx, "other.myshopify.com", 10, 0)
	if demoTotal != 1 || otherTotal != 1 {
		t.Errorf("unexpected remaining claims demo=%d other=%d", demoTotal, otherTotal)
	}
}
