package core

import (
	"fmt"
	"net/url"
	"strings"

	"lostfound/pkg/domain"
	"lostfound/pkg/itemcode"
)

// QRImageEndpoint renders QR images. The core only builds URLs for it.
const QRImageEndpoint = "https://api.qrserver.com/v1/create-qr-code/"

const labelTimeLayout = "2006/1/2 15:04:05"

// LabelView is what the printing collaborator needs for one item.
type LabelView struct {
	Item          LostItem          `json:"item"`
	CategoryLabel string            `json:"categoryLabel"`
	LocationLabel string            `json:"locationLabel"`
	Segments      itemcode.Segments `json:"segments"`
	FoundAt       string            `json:"foundAt"`
	QRPayload     string            `json:"qrPayload"`
	QRImageURL    string            `json:"qrImageUrl"`
	Filename      string            `json:"filename"`
}

// Label builds the label view of one item.
func (q *QueryFacade) Label(id string) (LabelView, error) {
	item, ok := q.items.Find(id)
	if !ok {
		return LabelView{}, domain.NotFoundError{Entity: domain.EntityItem, ID: id}
	}
	view := LabelView{
		Item:          item,
		CategoryLabel: q.CategoryLabel(item.TypeID),
		LocationLabel: q.LocationLabel(item.LocID),
		Segments:      itemcode.Decompose(item.GeneratedCode),
		FoundAt:       item.FoundAt(q.loc).Format(labelTimeLayout),
		Filename:      LabelFilename(item.GeneratedCode),
	}
	view.QRPayload = fmt.Sprintf("物品ID: %s\n物品: %s\n位置: %s (%s层)\n时间: %s\n拾获: %s",
		item.GeneratedCode, item.ItemName, view.LocationLabel, item.Floor, view.FoundAt, item.Finder)
	view.QRImageURL = QRImageURL(view.QRPayload)
	return view, nil
}

// QRImageURL returns the image URL encoding payload at 300x300.
func QRImageURL(payload string) string {
	data := strings.ReplaceAll(url.QueryEscape(payload), "+", "%20")
	return QRImageEndpoint + "?size=300x300&data=" + data + "&charset-source=UTF-8"
}

// LabelFilename is the download name of a label image.
func LabelFilename(code string) string {
	return "QR-" + code + ".png"
}
