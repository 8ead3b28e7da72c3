package models

import (
	"path"
	"strings"
)

// MediaKind is the preview category of an attachment.
type MediaKind string

const (
	MediaKindImage        MediaKind = "image"
	MediaKindAudio        MediaKind = "audio"
	MediaKindVideo        MediaKind = "video"
	MediaKindPDF          MediaKind = "pdf"
	MediaKindDocument     MediaKind = "document"
	MediaKindSpreadsheet  MediaKind = "spreadsheet"
	MediaKindPresentation MediaKind = "presentation"
	MediaKindText         MediaKind = "text"
	MediaKindArchive      MediaKind = "archive"
	MediaKindFile         MediaKind = "file"
)

// MediaType describes how an extension is shown in the feed.
type MediaType struct {
	Kind  MediaKind
	Label string
}

var mediaTypes = map[string]MediaType{
	".pdf":  {MediaKindPDF, "PDF Document"},
	".doc":  {MediaKindDocument, "Word Document"},
	".docx": {MediaKindDocument, "Word Document"},
	".xls":  {MediaKindSpreadsheet, "Excel Spreadsheet"},
	".xlsx": {MediaKindSpreadsheet, "Excel Spreadsheet"},
	".ppt":  {MediaKindPresentation, "PowerPoint Presentation"},
	".pptx": {MediaKindPresentation, "PowerPoint Presentation"},
	".txt":  {MediaKindText, "Text File"},
	".zip":  {MediaKindArchive, "Archive File"},
	".rar":  {MediaKindArchive, "Archive File"},
	".mp3":  {MediaKindAudio, "Audio File"},
	".wav":  {MediaKindAudio, "Audio File"},
	".ogg":  {MediaKindAudio, "Audio File"},
	".mp4":  {MediaKindVideo, "Video File"},
	".mov":  {MediaKindVideo, "Video File"},
	".avi":  {MediaKindVideo, "Video File"},
	".jpg":  {MediaKindImage, "Image File"},
	".jpeg": {MediaKindImage, "Image File"},
	".png":  {MediaKindImage, "Image File"},
	".gif":  {MediaKindImage, "Image File"},
	".webp": {MediaKindImage, "Image File"},
}

// ExtensionOf returns the lowercased extension of a client filename, dot included.
// Backslash separators are treated as path separators; dotfiles have no extension.
func ExtensionOf(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" || strings.LastIndex(base, ".") <= 0 {
		return ""
	}
	return strings.ToLower(path.Ext(base))
}

// LookupMediaKind maps an extension to its category and display label.
// Unknown extensions are generic files labelled after the extension.
func LookupMediaKind(ext string) MediaType {
	ext = strings.ToLower(ext)
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	if ext == "" || ext == "." {
		return MediaType{Kind: MediaKindFile, Label: "File"}
	}
	return MediaType{
		Kind:  MediaKindFile,
		Label: strings.ToUpper(strings.TrimPrefix(ext, ".")) + " File",
	}
}

// PreviewKind collapses a category onto the renderer used by the feed page.
func (k MediaKind) PreviewKind() MediaKind {
	switch k {
	case MediaKindImage, MediaKindAudio, MediaKindVideo, MediaKindPDF:
		return k
	default:
		return MediaKindFile
	}
}
