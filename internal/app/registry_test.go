package app_test

import (
	"errors"
	"testing"

	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
	"bank_reviews/internal/shared"
)

func testRegistry() *app.Registry {
	return app.NewRegistry([]shared.OrgSpec{
		{Code: "CBE", DisplayName: "Commercial Bank of Ethiopia", AppID: "com.combanketh.mobilebanking"},
		{Code: "BOA", DisplayName: "Bank of Abyssinia", AppID: "com.boa.boaMobileBanking"},
		{Code: "Dashen", DisplayName: "Dashen Bank", AppID: "com.dashen.dashensuperapp"},
	})
}

func TestRegistry_Resolve(t *testing.T) {
	r := testRegistry()

	org, err := r.Resolve("CBE")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if org.AppID != "com.combanketh.mobilebanking" || org.DisplayName != "Commercial Bank of Ethiopia" {
		t.Fatalf("unexpected org: %+v", org)
	}

	_, err = r.Resolve("ZEMEN")
	if !errors.Is(err, domain.ErrUnknownOrganization) {
		t.Fatalf("expected ErrUnknownOrganization, got %v", err)
	}
}

func TestRegistry_Invert(t *testing.T) {
	r := testRegistry()

	code, ok := r.Invert("com.dashen.dashensuperapp")
	if !ok || code != "Dashen" {
		t.Fatalf("invert failed: %q %v", code, ok)
	}
	if _, ok := r.Invert("com.unknown.app"); ok {
		t.Fatalf("expected no match for unknown app id")
	}
}

func TestRegistry_CodesOrder(t *testing.T) {
	got := testRegistry().Codes()
	want := []string{"CBE", "BOA", "Dashen"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("configuration order not preserved: %v", got)
		}
	}
}
