package models

// SalesDetailRequest identifies a bill to fetch full details for.
type SalesDetailRequest struct {
	BillDate     string `json:"billdate" validate:"required,datetime=2006-01-02"`
	BillNo       int64  `json:"billno" validate:"required,gt=0"`
	CustomerCode string `json:"cuscod" validate:"required,min=1,max=5"`
}

// SalesDetail is one item row of a bill with customer and salesman info.
type SalesDetail struct {
	BillDate      string  `db:"billdate" json:"billdate"`
	BillNo        int64   `db:"billno" json:"billno"`
	SerialNo      *string `db:"sno" json:"sno"`
	CustomerCode  string  `db:"cuscod" json:"cuscod"`
	CustomerName  *string `db:"cusnam" json:"cusnam"`
	AddressOne    *string `db:"adrone" json:"adrone"`
	AddressTwo    *string `db:"adrtwo" json:"adrtwo"`
	Phone         *string `db:"phone" json:"phone"`
	SalesmanName  *string `db:"salmannam" json:"salmannam"`
	SalesmanPhone *string `db:"salmanphon" json:"salmanphon"`
	ManagerName   *string `db:"managername" json:"managername"`
	ManagerPhone  *string `db:"managerphon" json:"managerphon"`
	ItemName      string  `db:"name" json:"name"`
	Rate          float64 `db:"rate" json:"rate"`
	Qty           float64 `db:"qty" json:"qty"`
	TotalPrice    float64 `db:"tprice" json:"tprice"`
	CostRate      float64 `db:"prcostrate" json:"prcostrate"`
	ProfitLoss    float64 `db:"profit_loss" json:"profit_loss"`
	TotalQty      float64 `db:"tqty" json:"tqty"`
	Net           float64 `db:"net" json:"net"`
}
