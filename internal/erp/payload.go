package erp

import (
	"strconv"

	"cargodocs/internal"
)

// Payload is the SendProductionDataToTransaction request body. Field names
// are dictated by the 1C service and mix latin and cyrillic keys.
type Payload struct {
	BillOfLading       string             `json:"bill_of_lading"`
	CreatedDatetime    string             `json:"ИмпМорскаяПеревозкаДатаПолученияДУ,omitempty"`
	VoyageNumber       string             `json:"ИмпМорскаяПеревозкаНомерРейсаФидер,omitempty"`
	IsBillOfLading     string             `json:"ЭтоКоносамент"`
	TransactionNumbers []string           `json:"transaction_numbers"`
	SourceFileName     string             `json:"source_file_name,omitempty"`
	SourceFileBase64   string             `json:"source_file_base64,omitempty"`
	Containers         []PayloadContainer `json:"containers"`
}

type PayloadContainer struct {
	Container     string   `json:"container"`
	Seals         []string `json:"ИмпМорскаяПеревозкаНомерПломбы,omitempty"`
	UploadDate    string   `json:"ИмпМорскаяПеревозкаДатаВыгрузкиКонтейнера,omitempty"`
	ProvisionDate string   `json:"ДатаПредоставленияФСПоГП,omitempty"`
}

// BuildPayload maps a reconciled document onto the 1C wire format.
func BuildPayload(doc *internal.Document) Payload {
	p := Payload{
		BillOfLading:       doc.BillOfLading,
		CreatedDatetime:    doc.CreatedDatetime,
		VoyageNumber:       doc.VoyageNumber,
		IsBillOfLading:     strconv.FormatBool(doc.DocumentType.IsBillOfLading()),
		TransactionNumbers: doc.TransactionNumbers,
		SourceFileName:     doc.SourceFileName,
		SourceFileBase64:   doc.SourceFileBase64,
		Containers:         make([]PayloadContainer, 0, len(doc.Containers)),
	}
	for _, cont := range doc.Containers {
		p.Containers = append(p.Containers, PayloadContainer{
			Container:  cont.Code,
			Seals:      cont.Seals,
			UploadDate: cont.UploadDatetime,
		})
	}
	return p
}
