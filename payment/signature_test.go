package payment

import "testing"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	sig := Sign("whsec", body)

	if !VerifySignature("whsec", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature("other", body, sig) {
		t.Fatal("signature with wrong secret accepted")
	}
	if VerifySignature("whsec", []byte(`{"event":"charge.failed"}`), sig) {
		t.Fatal("signature over different body accepted")
	}
	if VerifySignature("whsec", body, "not-hex") {
		t.Fatal("malformed signature accepted")
	}
	if VerifySignature("", body, Sign("", body)) {
		t.Fatal("empty secret must never verify")
	}
}

func TestEventOutcome(t *testing.T) {
	cases := []struct {
		ev   Event
		want Outcome
		ok   bool
	}{
		{Event{Type: EventChargeSuccess, Status: "success"}, OutcomeSuccess, true},
		{Event{Type: EventChargeSuccess, Status: "abandoned"}, "", false},
		{Event{Type: EventChargeFailed}, OutcomeFailed, true},
		{Event{Type: "transfer.success"}, "", false},
	}
	for _, tc := range cases {
		got, ok := tc.ev.Outcome()
		if got != tc.want || ok != tc.ok {
			t.Errorf("%+v: got (%q, %v), want (%q, %v)", tc.ev, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDedupeKey(t *testing.T) {
	a := &Event{Raw: []byte("one")}
	b := &Event{Raw: []byte("one")}
	c := &Event{Raw: []byte("two")}
	if a.DedupeKey() != b.DedupeKey() || a.DedupeKey() == c.DedupeKey() {
		t.Fatal("body hash keys should match only for identical bodies")
	}
	if (&Event{ID: "evt_1", Raw: []byte("x")}).DedupeKey() != "evt:evt_1" {
		t.Fatal("provider id should take precedence")
	}
}
