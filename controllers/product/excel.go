package productcontroller

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportReport struct {
	Created int              `json:"created_count"`
	Updated int              `json:"updated_count"`
	Skipped int              `json:"skipped_count"`
	Errors  []ImportRowError `json:"errors"`
}

// parseSizeList reads "S:3,M:5".
func parseSizeList(raw string) ([]SizeStock, error) {
	var out []SizeStock
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		size, qty, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid size entry %q, expected SIZE:QTY", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q", part)
		}
		out = append(out, SizeStock{Size: strings.TrimSpace(size), Quantity: n})
	}
	return out, nil
}

func categoryByName(db *gorm.DB, name string) (*uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var category models.Category
	if err := db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&category).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		created, err := CreateCategory(db, name)
		if err != nil {
			return nil, err
		}
		category = *created
	}
	return &category.ID, nil
}

// rowInput turns one sheet row into product input. Cells follow productColumns.
func rowInput(row *xlsx.Row) (ProductInput, error) {
	get := func(i int) string {
		if i < len(row.Cells) {
			return strings.TrimSpace(row.Cells[i].String())
		}
		return ""
	}

	in := ProductInput{
		Slug:        get(0),
		Name:        get(1),
		Description: get(2),
		ProductType: models.ProductType(strings.ToLower(get(5))),
		ImageURL:    get(10),
	}

	price, err := decimal.NewFromString(get(3))
	if err != nil {
		return in, fmt.Errorf("invalid price %q", get(3))
	}
	in.Price = price
	if raw := get(4); raw != "" {
		discounted, err := decimal.NewFromString(raw)
		if err != nil {
			return in, fmt.Errorf("invalid discounted price %q", raw)
		}
		in.DiscountedPrice = &discounted
	}
	if raw := get(6); raw != "" {
		if in.Quantity, err = strconv.Atoi(raw); err != nil {
			return in, fmt.Errorf("invalid quantity %q", raw)
		}
	}
	if in.Sizes, err = parseSizeList(get(7)); err != nil {
		return in, err
	}
	if raw := get(8); raw != "" {
		available, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return in, fmt.Errorf("invalid availability %q", raw)
		}
		in.IsAvailable = &available
	}
	return in, nil
}

// upsertProduct creates the product or, when its slug exists, updates it in
// place. Stock of sized products is replaced by the listed sizes.
func upsertProduct(db *gorm.DB, in ProductInput, category string) (bool, error) {
	categoryID, err := categoryByName(db, category)
	if err != nil {
		return false, err
	}
	in.CategoryID = categoryID

	slug := slugify(in.Slug)
	if slug == "" {
		slug = slugify(in.Name)
	}
	var existing models.Product
	err = db.Where("slug = ?", slug).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_, err := CreateProduct(db, in)
		return true, err
	}
	if err != nil {
		return false, err
	}

	if in.ProductType != "" && in.ProductType != existing.ProductType {
		return false, apperr.Validation("product type of %s cannot be changed", slug)
	}
	patch := ProductPatch{
		Name:            &in.Name,
		Description:     &in.Description,
		Price:           &in.Price,
		DiscountedPrice: in.DiscountedPrice,
		IsAvailable:     in.IsAvailable,
		CategoryID:      in.CategoryID,
		ClearCategory:   in.CategoryID == nil,
	}
	if patch.DiscountedPrice == nil {
		patch.DiscountedPrice = &in.Price
	}
	if !existing.IsSized() {
		patch.Quantity = &in.Quantity
	}
	if _, err := UpdateProduct(db, existing.ID, patch); err != nil {
		return false, err
	}
	if existing.IsSized() {
		if _, err := ReplaceSizes(db, existing.ID, in.Sizes); err != nil {
			return false, err
		}
	}
	if in.ImageURL != "" && in.ImageURL != existing.ImageURL {
		if err := db.Model(&existing).Update("image_url", in.ImageURL).Error; err != nil {
			return false, err
		}
	}
	return false, nil
}

// ImportProducts reads the first sheet and upserts one product per row,
// keyed by slug. Bad rows are reported and skipped.
func ImportProducts(db *gorm.DB, file *xlsx.File) (*ImportReport, error) {
	if len(file.Sheets) == 0 || file.Sheets[0].MaxRow < 2 {
		return nil, apperr.Validation("excel file is empty or missing header row")
	}
	sheet := file.Sheets[0]

	report := &ImportReport{Errors: []ImportRowError{}}
	for i := 1; i < sheet.MaxRow && i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		skip := func(err error) {
			report.Skipped++
			report.Errors = append(report.Errors, ImportRowError{Row: i + 1, Error: err.Error()})
		}

		in, err := rowInput(row)
		if err != nil {
			skip(err)
			continue
		}
		category := ""
		if len(row.Cells) > 9 {
			category = strings.TrimSpace(row.Cells[9].String())
		}

		created, err := upsertProduct(db, in, category)
		if err != nil {
			var appErr *apperr.Error
			if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
				return nil, err
			}
			skip(err)
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	log.Printf("📥 Product import: %d created, %d updated, %d skipped", report.Created, report.Updated, report.Skipped)
	return report, nil
}

// POST /admin/products/import-excel
func ImportProductsFromExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}

		report, err := ImportProducts(db, xlFile)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
