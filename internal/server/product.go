package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
)

func (s *Server) ListProducts(c *gin.Context) {
	resp, err := s.productSvc.List(c.Request.Context(), productdomain.ListRequest{
		Search: c.Query("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetProductByID(c *gin.Context) {
	resp, err := s.productSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req productdomain.CreateRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	} else {
		req = productdomain.CreateRequest{
			Name:        c.PostForm("name"),
			SKU:         c.PostForm("sku"),
			Price:       c.PostForm("price"),
			Description: optionalForm(c, "description"),
			Categories:  c.PostForm("categories"),
		}
		img, closeImg, err := formFile(c, "image")
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		defer closeImg()
		req.Image = img
	}

	resp, err := s.productSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    resp,
	})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req productdomain.UpdateRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	} else {
		req = productdomain.UpdateRequest{
			Name:        optionalForm(c, "name"),
			SKU:         optionalForm(c, "sku"),
			Price:       optionalForm(c, "price"),
			Description: optionalForm(c, "description"),
			Categories:  optionalForm(c, "categories"),
		}
		img, closeImg, err := formFile(c, "image")
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		defer closeImg()
		req.Image = img
	}

	resp, err := s.productSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully.",
		"data":    resp,
	})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	if err := s.productSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully."})
}

func (s *Server) ExportProducts(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(productdomain.ExportCSV))))

	file, err := s.productSvc.Export(c.Request.Context(), productdomain.ExportRequest{
		Search: c.Query("search"),
		Format: productdomain.ExportFormat(format),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

func (s *Server) ImportProducts(c *gin.Context) {
	upload, closeFile, err := formFile(c, "file")
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer closeFile()
	if upload == nil {
		AbortWithError(c, fileRequiredError())
		return
	}

	result, err := s.productSvc.Import(c.Request.Context(), upload.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return v
}
