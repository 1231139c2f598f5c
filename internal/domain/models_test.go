package domain

import "testing"

func TestPlanChannelTags(t *testing.T) {
	cases := map[Plan][]ChannelTag{
		PlanVIP:     {TagVIP},
		PlanDark:    {TagDark},
		PlanBoth:    {TagVIP, TagDark},
		Plan("gold"): nil,
		Plan(""):     nil,
	}
	for plan, want := range cases {
		got := plan.ChannelTags()
		if len(got) != len(want) {
			t.Errorf("Plan(%q).ChannelTags() = %v; want %v", plan, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Plan(%q).ChannelTags()[%d] = %v; want %v", plan, i, got[i], want[i])
			}
		}
	}
}

func TestPlanIncludes(t *testing.T) {
	if !PlanBoth.Includes(TagVIP) || !PlanBoth.Includes(TagDark) {
		t.Fatalf("both must include vip and dark")
	}
	if PlanVIP.Includes(TagDark) {
		t.Fatalf("vip must not include dark")
	}
	if PlanDark.Includes(TagVIP) {
		t.Fatalf("dark must not include vip")
	}
}

func TestMethodCurrency(t *testing.T) {
	if got := MethodCrypto.Currency(); got != "USD" {
		t.Fatalf("crypto currency = %q; want USD", got)
	}
	if got := MethodUPI.Currency(); got != "INR" {
		t.Fatalf("upi currency = %q; want INR", got)
	}
	if got := MethodRemitly.Currency(); got != "INR" {
		t.Fatalf("remitly currency = %q; want INR", got)
	}
}

func TestValidity(t *testing.T) {
	for _, p := range []Plan{PlanVIP, PlanDark, PlanBoth} {
		if !p.Valid() {
			t.Errorf("Plan(%q).Valid() = false", p)
		}
	}
	if Plan("free").Valid() {
		t.Errorf("unknown plan reported valid")
	}
	for _, m := range []Method{MethodUPI, MethodCrypto, MethodRemitly} {
		if !m.Valid() {
			t.Errorf("Method(%q).Valid() = false", m)
		}
	}
	if Method("cash").Valid() {
		t.Errorf("unknown method reported valid")
	}
}

func TestSnapshotUserInvites(t *testing.T) {
	s := NewSnapshot()
	m := s.UserInvites(42)
	m[TagVIP] = "https://t.me/+abc"

	again := s.UserInvites(42)
	if again[TagVIP] != "https://t.me/+abc" {
		t.Fatalf("UserInvites must return the same map on repeat calls")
	}
	if len(s.Invites) != 1 {
		t.Fatalf("expected one user entry, got %d", len(s.Invites))
	}
}

func TestGatewayNotesHasIdentity(t *testing.T) {
	if (GatewayNotes{}).HasIdentity() {
		t.Fatalf("empty notes must not have identity")
	}
	if (GatewayNotes{TelegramUserID: 42}).HasIdentity() {
		t.Fatalf("notes without plan must not have identity")
	}
	if (GatewayNotes{Plan: PlanVIP}).HasIdentity() {
		t.Fatalf("notes without user id must not have identity")
	}
	if !(GatewayNotes{TelegramUserID: 42, Plan: PlanBoth}).HasIdentity() {
		t.Fatalf("notes with id and plan must have identity")
	}
}
