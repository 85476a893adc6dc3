// Package view renders rooms and rents as HTML fragments for the page.
// Every field goes through html/template, so names and locations typed by
// other users are escaped.
package view

import (
	"embed"
	"html/template"
	"io"

	"roomShare/internal/dates"
	"roomShare/internal/models"
	"roomShare/internal/selection"
)

//go:embed templates/*.html
var files embed.FS

const NoRoomsOption = `- Rooms Available -`

var funcs = template.FuncMap{
	"short":  short,
	"encode": selection.Encode,
	"day":    dates.FormatDay,
}

var templates = template.Must(template.New("view").Funcs(funcs).ParseFS(files, "templates/*.html"))

func short(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}

type PageData struct {
	ContractAddress string
	ExchangeRate    float64
	ReferenceYear   int
}

func Page(w io.Writer, data PageData) error {
	return templates.ExecuteTemplate(w, "index.html", data)
}

func RoomRows(w io.Writer, rooms []models.Room) error {
	return templates.ExecuteTemplate(w, "room_rows.html", rooms)
}

// RoomOptions lists active rooms only, after the placeholder option.
func RoomOptions(w io.Writer, rooms []models.Room) error {
	return templates.ExecuteTemplate(w, "room_options.html", struct {
		Placeholder string
		Rooms       []models.Room
	}{NoRoomsOption, selection.Active(rooms)})
}

func RentRows(w io.Writer, rents []models.Rent, year int) error {
	return templates.ExecuteTemplate(w, "rent_rows.html", struct {
		Year  int
		Rents []models.Rent
	}{year, rents})
}

func HistoryRows(w io.Writer, rents []models.Rent) error {
	return templates.ExecuteTemplate(w, "history_rows.html", rents)
}
