package productcontroller

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// productColumns is shared by export and import so an exported sheet can be
// edited and imported back.
var productColumns = []string{
	"Slug", "Name", "Description", "Price", "DiscountedPrice", "ProductType",
	"Quantity", "Sizes", "IsAvailable", "Category", "ImageURL",
}

// formatSizes renders size stock as "S:3,M:5".
func formatSizes(sizes []models.ProductSize) string {
	parts := make([]string, 0, len(sizes))
	for _, s := range sizes {
		parts = append(parts, fmt.Sprintf("%s:%d", s.Size, s.Quantity))
	}
	return strings.Join(parts, ",")
}

func WriteProductsExcel(w io.Writer, products []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range productColumns {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		row := sheet.AddRow()
		row.AddCell().SetValue(p.Slug)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.DiscountedPrice.StringFixed(2))
		row.AddCell().SetValue(string(p.ProductType))
		row.AddCell().SetValue(p.Quantity)
		row.AddCell().SetValue(formatSizes(p.Sizes))
		row.AddCell().SetValue(fmt.Sprintf("%t", p.IsAvailable))
		row.AddCell().SetValue(category)
		row.AddCell().SetValue(p.ImageURL)
	}

	return file.Write(w)
}

// GET /admin/products/export-excel
func ExportProductsToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.Preload("Sizes", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		}).Preload("Category").Order("id ASC").Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := WriteProductsExcel(c.Writer, products); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
