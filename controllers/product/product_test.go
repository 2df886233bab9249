package productcontroller

import (
	"bytes"
	"testing"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/auth"
	cartControllers "github.com/Justjoseph0/e-commerce-backend/controllers/cart"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/Justjoseph0/e-commerce-backend/testutil"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Summer Shirt":      "summer-shirt",
		"  Mug -- 2L!  ":    "mug-2l",
		"Ünïcode & Friends": "n-code-friends",
		"!!!":               "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateProduct(t *testing.T) {
	db := testutil.NewDB(t)
	cat, err := CreateCategory(db, "Shirts")
	if err != nil {
		t.Fatal(err)
	}

	p, err := CreateProduct(db, ProductInput{
		Name:            "Linen Shirt",
		Price:           dec("30.00"),
		DiscountedPrice: decPtr("24.50"),
		ProductType:     models.ProductTypeSized,
		CategoryID:      &cat.ID,
		Sizes:           []SizeStock{{Size: "m", Quantity: 4}, {Size: "XL", Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "linen-shirt" || !p.IsAvailable || len(p.Sizes) != 2 || p.Quantity != 0 {
		t.Fatalf("product = %+v", p)
	}
	if got := testutil.SizeStock(t, db, p.ID, models.SizeM); got != 4 {
		t.Fatalf("M stock = %d", got)
	}

	mug, err := CreateProduct(db, ProductInput{Name: "Mug", Price: dec("5"), Quantity: 9})
	if err != nil {
		t.Fatal(err)
	}
	if mug.ProductType != models.ProductTypeNonSized || !mug.DiscountedPrice.Equal(dec("5")) {
		t.Fatalf("mug = %+v", mug)
	}
}

func TestCreateProductValidation(t *testing.T) {
	db := testutil.NewDB(t)
	if _, err := CreateProduct(db, ProductInput{Name: "Taken", Price: dec("1")}); err != nil {
		t.Fatal(err)
	}
	missing := uint(42)

	cases := []struct {
		name string
		in   ProductInput
		kind apperr.Kind
	}{
		{"no name", ProductInput{Price: dec("1")}, apperr.KindValidation},
		{"negative price", ProductInput{Name: "A", Price: dec("-1")}, apperr.KindValidation},
		{"discount above price", ProductInput{Name: "A", Price: dec("1"), DiscountedPrice: decPtr("2")}, apperr.KindValidation},
		{"bad type", ProductInput{Name: "A", Price: dec("1"), ProductType: "bundle"}, apperr.KindValidation},
		{"sizes on non-sized", ProductInput{Name: "A", Price: dec("1"), Sizes: []SizeStock{{Size: "M", Quantity: 1}}}, apperr.KindValidation},
		{"duplicate size", ProductInput{Name: "A", Price: dec("1"), ProductType: models.ProductTypeSized,
			Sizes: []SizeStock{{Size: "M", Quantity: 1}, {Size: "m", Quantity: 2}}}, apperr.KindValidation},
		{"unknown size", ProductInput{Name: "A", Price: dec("1"), ProductType: models.ProductTypeSized,
			Sizes: []SizeStock{{Size: "XXL", Quantity: 1}}}, apperr.KindValidation},
		{"negative stock", ProductInput{Name: "A", Price: dec("1"), Quantity: -1}, apperr.KindValidation},
		{"slug in use", ProductInput{Name: "Taken", Price: dec("1")}, apperr.KindValidation},
		{"missing category", ProductInput{Name: "B", Price: dec("1"), CategoryID: &missing}, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := CreateProduct(db, tc.in); !apperr.Is(err, tc.kind) {
				t.Fatalf("got %v", err)
			}
		})
	}
}

func TestListProductsFilters(t *testing.T) {
	db := testutil.NewDB(t)
	shirts, _ := CreateCategory(db, "Shirts")
	CreateProduct(db, ProductInput{Name: "Blue Shirt", Description: "cotton", Price: dec("20"), CategoryID: &shirts.ID})
	CreateProduct(db, ProductInput{Name: "Red Shirt", Price: dec("40"), DiscountedPrice: decPtr("15"), CategoryID: &shirts.ID})
	off := false
	CreateProduct(db, ProductInput{Name: "Cotton Mug", Price: dec("8"), IsAvailable: &off})

	names := func(q ProductQuery) []string {
		t.Helper()
		products, err := ListProducts(db, q)
		if err != nil {
			t.Fatal(err)
		}
		out := make([]string, len(products))
		for i, p := range products {
			out[i] = p.Name
		}
		return out
	}

	if got := names(ProductQuery{Search: "COTTON", SortBy: "name", Order: "asc"}); len(got) != 2 || got[0] != "Blue Shirt" {
		t.Fatalf("search = %v", got)
	}
	if got := names(ProductQuery{Category: "shirts"}); len(got) != 2 {
		t.Fatalf("category = %v", got)
	}
	if got := names(ProductQuery{IsAvailable: &off}); len(got) != 1 || got[0] != "Cotton Mug" {
		t.Fatalf("availability = %v", got)
	}
	// price filters use the discounted price
	if got := names(ProductQuery{MaxPrice: decPtr("16")}); len(got) != 2 {
		t.Fatalf("max price = %v", got)
	}
	if got := names(ProductQuery{MinPrice: decPtr("16")}); len(got) != 1 || got[0] != "Blue Shirt" {
		t.Fatalf("min price = %v", got)
	}
	if got := names(ProductQuery{SortBy: "discounted_price", Order: "desc"}); got[0] != "Blue Shirt" || got[1] != "Red Shirt" {
		t.Fatalf("sort = %v", got)
	}

	if _, err := ListProducts(db, ProductQuery{SortBy: "id; DROP TABLE products"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("bad sort: %v", err)
	}
	if _, err := ListProducts(db, ProductQuery{Order: "sideways"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("bad order: %v", err)
	}
}

func TestGetProductByIDOrSlug(t *testing.T) {
	db := testutil.NewDB(t)
	p, _ := CreateProduct(db, ProductInput{Name: "Tote Bag", Price: dec("12")})

	if got, err := GetProduct(db, "tote-bag"); err != nil || got.ID != p.ID {
		t.Fatalf("by slug: %+v, %v", got, err)
	}
	if _, err := GetProduct(db, "nothing-here"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing slug: %v", err)
	}
}

func TestUpdateProduct(t *testing.T) {
	db := testutil.NewDB(t)
	p, _ := CreateProduct(db, ProductInput{Name: "Mug", Price: dec("10"), Quantity: 3})
	sized, _ := CreateProduct(db, ProductInput{Name: "Tee", Price: dec("10"), ProductType: models.ProductTypeSized,
		Sizes: []SizeStock{{Size: "S", Quantity: 1}}})

	name := "Big Mug"
	qty := 8
	updated, err := UpdateProduct(db, p.ID, ProductPatch{Name: &name, Quantity: &qty, DiscountedPrice: decPtr("7.5")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Big Mug" || updated.Quantity != 8 || !updated.DiscountedPrice.Equal(dec("7.5")) {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := UpdateProduct(db, p.ID, ProductPatch{DiscountedPrice: decPtr("11")}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("discount above price: %v", err)
	}
	if _, err := UpdateProduct(db, sized.ID, ProductPatch{Quantity: &qty}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("quantity on sized product: %v", err)
	}
	slug := "tee"
	if _, err := UpdateProduct(db, p.ID, ProductPatch{Slug: &slug}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("slug collision: %v", err)
	}
	if _, err := UpdateProduct(db, 999, ProductPatch{Name: &name}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing product: %v", err)
	}
}

func TestReplaceSizes(t *testing.T) {
	db := testutil.NewDB(t)
	tee, _ := CreateProduct(db, ProductInput{Name: "Tee", Price: dec("10"), ProductType: models.ProductTypeSized,
		Sizes: []SizeStock{{Size: "S", Quantity: 1}, {Size: "M", Quantity: 2}}})

	sizes, err := ReplaceSizes(db, tee.ID, []SizeStock{{Size: "M", Quantity: 6}, {Size: "L", Quantity: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 2 {
		t.Fatalf("sizes = %+v", sizes)
	}
	if got := testutil.SizeStock(t, db, tee.ID, models.SizeM); got != 6 {
		t.Fatalf("M = %d", got)
	}
	var count int64
	db.Model(&models.ProductSize{}).Where("product_id = ? AND size = ?", tee.ID, models.SizeS).Count(&count)
	if count != 0 {
		t.Fatal("size S should be removed")
	}

	mug, _ := CreateProduct(db, ProductInput{Name: "Mug", Price: dec("1")})
	if _, err := ReplaceSizes(db, mug.ID, []SizeStock{{Size: "M", Quantity: 1}}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("non-sized: %v", err)
	}
}

func TestDeleteProductDropsCartLines(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", auth.RoleCustomer)
	mug := testutil.CreateNonSizedProduct(t, db, "Mug", "5.00", 5)
	if _, err := cartControllers.AddProduct(db, "u1", mug.ID, 1, ""); err != nil {
		t.Fatal(err)
	}

	if err := DeleteProduct(db, mug.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := GetProduct(db, "1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("deleted product still listed: %v", err)
	}
	view, _ := cartControllers.Get(db, "u1")
	if len(view.Items) != 0 {
		t.Fatalf("cart still has %d lines", len(view.Items))
	}
	if err := DeleteProduct(db, mug.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestCategories(t *testing.T) {
	db := testutil.NewDB(t)
	cat, err := CreateCategory(db, "Bags")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CreateCategory(db, "Bags"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("duplicate: %v", err)
	}
	renamed, err := RenameCategory(db, cat.ID, "Totes")
	if err != nil || renamed.Name != "Totes" {
		t.Fatalf("rename: %+v, %v", renamed, err)
	}

	p, _ := CreateProduct(db, ProductInput{Name: "Tote", Price: dec("1"), CategoryID: &cat.ID})
	if err := DeleteCategory(db, cat.ID); err != nil {
		t.Fatal(err)
	}
	got, err := GetProduct(db, p.Slug)
	if err != nil || got.CategoryID != nil {
		t.Fatalf("product after category delete: %+v, %v", got, err)
	}
	if err := DeleteCategory(db, cat.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestExcelRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	cat, _ := CreateCategory(db, "Shirts")
	tee, _ := CreateProduct(db, ProductInput{Name: "Tee", Price: dec("10"), ProductType: models.ProductTypeSized,
		CategoryID: &cat.ID, Sizes: []SizeStock{{Size: "S", Quantity: 1}, {Size: "M", Quantity: 2}}})
	mug, _ := CreateProduct(db, ProductInput{Name: "Mug", Price: dec("4"), Quantity: 7})
	tee, _ = GetProduct(db, tee.Slug)
	mug, _ = GetProduct(db, mug.Slug)

	var buf bytes.Buffer
	if err := WriteProductsExcel(&buf, []models.Product{*tee, *mug}); err != nil {
		t.Fatal(err)
	}
	file, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	sheet := file.Sheets[0]
	if got := sheet.Rows[1].Cells[7].String(); got != "S:1,M:2" {
		t.Fatalf("sizes cell = %q", got)
	}

	// edit the sheet: restock the tee, reprice the mug, add a new product
	sheet.Rows[1].Cells[7].SetValue("M:9,L:4")
	sheet.Rows[2].Cells[4].SetValue("3.50")
	row := sheet.AddRow()
	for _, v := range []string{"", "Cap", "", "6", "", "non-sized", "2", "", "true", "Hats", ""} {
		row.AddCell().SetValue(v)
	}
	bad := sheet.AddRow()
	for _, v := range []string{"broken", "Broken", "", "not-a-price"} {
		bad.AddCell().SetValue(v)
	}

	report, err := ImportProducts(db, file)
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 1 || report.Updated != 2 || report.Skipped != 1 {
		t.Fatalf("report = %+v", report)
	}

	if got := testutil.SizeStock(t, db, tee.ID, models.SizeM); got != 9 {
		t.Fatalf("tee M = %d", got)
	}
	updatedMug, _ := GetProduct(db, "mug")
	if !updatedMug.DiscountedPrice.Equal(dec("3.5")) || updatedMug.Quantity != 7 {
		t.Fatalf("mug = %+v", updatedMug)
	}
	hat, err := GetProduct(db, "cap")
	if err != nil || hat.Category == nil || hat.Category.Name != "Hats" {
		t.Fatalf("cap = %+v, %v", hat, err)
	}
}

func TestParseSizeList(t *testing.T) {
	sizes, err := parseSizeList(" S:1 , xl:3 ,")
	if err != nil || len(sizes) != 2 || sizes[1].Size != "xl" || sizes[1].Quantity != 3 {
		t.Fatalf("sizes = %+v, %v", sizes, err)
	}
	if _, err := parseSizeList("M"); err == nil {
		t.Fatal("expected error for entry without quantity")
	}
	if _, err := parseSizeList("M:x"); err == nil {
		t.Fatal("expected error for bad quantity")
	}
}
