package models

// Company is a reporting entity from the FIRMASN master table.
type Company struct {
	SnoID          int64  `db:"sno_id" json:"SNO_ID"`
	FirmCodeID     string `db:"fircod_id" json:"FIRCOD_ID"`
	FirmCode       string `db:"fircod" json:"FIRCOD"`
	FirmName       string `db:"firname" json:"FIRNAME"`
	ShopGroupCode  string `db:"scgrpcod" json:"SCGRPCOD"`
	StoreGroupCode string `db:"sdgrpcod" json:"SDGRPCOD"`
}
