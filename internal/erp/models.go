package erp

import "time"

// =============================================================================
// 传输模型：与ERP后端互通的数据结构
// 所有实体的权威状态在后端，本地只持有可失效的副本
// =============================================================================

// ProductionInput 生产投入行（从托盘消耗的一箱原料）
type ProductionInput struct {
	ID           int     `json:"id"`
	ProductionID int     `json:"productionId"`
	BoxID        int     `json:"boxId"`
	PalletID     int     `json:"palletId"`
	PalletCode   string  `json:"palletCode"`
	ProductID    int     `json:"productId"`
	ProductName  string  `json:"productName"`
	Lot          string  `json:"lot"`
	NetWeight    float64 `json:"netWeight"`
	Notes        string  `json:"notes,omitempty"`
}

// ItemID 行标识
func (p ProductionInput) ItemID() int { return p.ID }

// OutputConsumption 产出消耗行（某产出品对原料的消耗登记）
type OutputConsumption struct {
	ID           int     `json:"id"`
	ProductionID int     `json:"productionId"`
	OutputID     int     `json:"outputId"`
	ProductID    int     `json:"productId"`
	ProductName  string  `json:"productName"`
	Lot          string  `json:"lot"`
	NetWeight    float64 `json:"netWeight"`
	Boxes        int     `json:"boxes"`
	Notes        string  `json:"notes,omitempty"`
}

// ItemID 行标识
func (o OutputConsumption) ItemID() int { return o.ID }

// Box 托盘内的一箱货
// 箱号只在托盘的已加载集合内唯一，定位必须用 (BoxID, PalletID) 二元组
type Box struct {
	ID          int     `json:"id"`
	PalletID    int     `json:"palletId"`
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName"`
	GTIN        string  `json:"gtin"`
	Lot         string  `json:"lot"`
	NetWeight   float64 `json:"netWeight"`
	Available   bool    `json:"available"`
}

// Pallet 托盘及其箱列表
type Pallet struct {
	ID       int    `json:"id"`
	Code     string `json:"code"`
	StoreID  int    `json:"storeId"`
	Position string `json:"position"`
	Boxes    []Box  `json:"boxes"`
}

// Order 订单聚合
type Order struct {
	ID           int       `json:"id"`
	CustomerID   int       `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Status       string    `json:"status"`
	LoadDate     time.Time `json:"loadDate"`
}

// PlannedProductDetail 订单计划产品明细（预测）
type PlannedProductDetail struct {
	ID          int     `json:"id"`
	OrderID     int     `json:"orderId"`
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
	Boxes       int     `json:"boxes"`
	Notes       string  `json:"notes,omitempty"`
}

// ItemID 行标识
func (d PlannedProductDetail) ItemID() int { return d.ID }

// ProductionProductDetail 订单实际产品明细（由关联托盘推导）
type ProductionProductDetail struct {
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
	Boxes       int     `json:"boxes"`
}

// Punch 员工考勤打卡
type Punch struct {
	ID         int       `json:"id"`
	EmployeeID int       `json:"employeeId"`
	Timestamp  time.Time `json:"timestamp"`
	Direction  string    `json:"direction"` // in / out
	Source     string    `json:"source,omitempty"`
}

// ItemID 行标识
func (p Punch) ItemID() int { return p.ID }

// WorkerStats 工人统计
type WorkerStats struct {
	EmployeeID   int     `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	WorkedHours  float64 `json:"workedHours"`
	Punches      int     `json:"punches"`
}
