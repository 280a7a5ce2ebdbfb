package service

import "doclib/internal/model"

// StaticDocuments are the placeholder records a fresh library starts with.
// They have no stored binary.
func StaticDocuments() []model.Document {
	return []model.Document{
		{ID: "17391eab-516e-48ab-a147-f1706b96d7d6", Name: "ID 348-356.pdf", Size: "2.5 MB", UploadedAt: "April 20, 2025"},
		{ID: "759f8aca-9069-49f8-8845-a7b6e700cb81", Name: "1728538602203.pdf", Size: "1.8 MB", UploadedAt: "April 21, 2025"},
		{ID: "ce37900e-09d2-44aa-9dc2-ae13cec0819f", Name: "1728538602203.pdf", Size: "3.2 MB", UploadedAt: "April 22, 2025"},
	}
}
