package addressControllers

import (
	"strings"
	"testing"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/auth"
	"github.com/Justjoseph0/e-commerce-backend/testutil"
)

func TestCreateAddress(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", auth.RoleCustomer)

	addr, err := Create(db, "u1", AddressInput{
		RecipientName: "  Ada Obi ",
		Line1:         "12 Marina Road",
		City:          "Lagos",
		Country:       "NG",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if addr.ID == 0 || addr.RecipientName != "Ada Obi" || addr.UserID != "u1" {
		t.Fatalf("address = %+v", addr)
	}

	list, err := List(db, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
}

func TestCreateAddressMissingFields(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", auth.RoleCustomer)

	_, err := Create(db, "u1", AddressInput{RecipientName: "Ada", City: "   "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	for _, field := range []string{"line1", "city", "country"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name %s", err, field)
		}
	}
	if strings.Contains(err.Error(), "recipient_name") {
		t.Errorf("error %q names a field that was given", err)
	}
}

func TestDeleteAddressOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", auth.RoleCustomer)
	testutil.CreateUser(t, db, "u2", auth.RoleCustomer)
	addr := testutil.CreateAddress(t, db, "u1")

	if err := Delete(db, "u2", addr.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign delete err = %v, want not found", err)
	}
	if err := Delete(db, "u1", addr.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := Delete(db, "u1", addr.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second delete err = %v, want not found", err)
	}

	list, _ := List(db, "u1")
	if len(list) != 0 {
		t.Fatalf("addresses left: %v", list)
	}
}
