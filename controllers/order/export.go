package orderControllers

import (
	"io"
	"net/http"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// WriteOrdersExcel writes one row per order line.
func WriteOrdersExcel(w io.Writer, orders []models.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	headers := []string{
		"Reference", "CreatedAt", "UserEmail", "Status", "DeliveryStatus", "DeliveredDate",
		"Total", "Product", "Size", "Quantity", "UnitPrice", "LineTotal", "ShippingAddress",
	}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetValue(h)
	}

	for _, o := range orders {
		email := ""
		if o.User != nil {
			email = o.User.Email
		}
		delivered := ""
		if o.DeliveredDate != nil {
			delivered = o.DeliveredDate.Format("2006-01-02 15:04:05")
		}
		for _, item := range o.Items {
			row := sheet.AddRow()
			row.AddCell().SetValue(o.Reference)
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(email)
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(string(o.DeliveryStatus))
			row.AddCell().SetValue(delivered)
			row.AddCell().SetValue(o.TotalAmount.StringFixed(2))
			row.AddCell().SetValue(item.ProductName)
			row.AddCell().SetValue(string(item.Size))
			row.AddCell().SetValue(item.Quantity)
			row.AddCell().SetValue(item.UnitPrice.StringFixed(2))
			row.AddCell().SetValue(item.LineTotal().StringFixed(2))
			row.AddCell().SetValue(o.ShippingAddress)
		}
	}

	return file.Write(w)
}

// GET /admin/orders/export-excel
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := ListOrders(db, OrderFilter{
			Status:         c.Query("status"),
			DeliveryStatus: c.Query("delivery_status"),
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := WriteOrdersExcel(c.Writer, orders); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
