package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/ledongthuc/pdf"
)

type InputType string

const (
	InputPDF InputType = "pdf"
	InputTXT InputType = "txt"
)

// InputTypeFromExt ánh xạ phần mở rộng file sang InputType hỗ trợ.
func InputTypeFromExt(ext string) (InputType, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return InputPDF, nil
	case ".txt":
		return InputTXT, nil
	default:
		return "", errors.New("định dạng file không hỗ trợ (chỉ nhận .pdf, .txt)")
	}
}

// ExtractText trích xuất văn bản thuần từ file tải lên.
func ExtractText(fileHeader *multipart.FileHeader, inputType InputType) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("mở file: %w", err)
	}
	defer file.Close()

	switch inputType {
	case InputPDF:
		return extractTextFromPDF(file)
	case InputTXT:
		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("đọc file txt: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", errors.New("loại input không hỗ trợ")
	}
}

func extractTextFromPDF(file multipart.File) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", fmt.Errorf("lỗi đọc file PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return "", fmt.Errorf("không thể tạo reader PDF: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(content)
	}

	return strings.TrimSpace(textBuilder.String()), nil
}
