package entitlement

// Marketplace keys used in Subscription.ExternalReferences.
const (
	IBMMarketplace   = "ibmmarketplace"
	AWSMarketplace   = "awsMarketplace"
	AzureMarketplace = "azureMarketplace"
)

// Subscription is the upstream subscription record. Effective dates are
// epoch milliseconds and may be missing on corrupt upstream rows.
type Subscription struct {
	ID                   int64                        `json:"id"`
	SubscriptionNumber   string                       `json:"subscriptionNumber"`
	WebCustomerID        int64                        `json:"webCustomerId"`
	OracleAccountNumber  int64                        `json:"oracleAccountNumber"`
	Quantity             int64                        `json:"quantity"`
	EffectiveStartDate   *int64                       `json:"effectiveStartDate"`
	EffectiveEndDate     *int64                       `json:"effectiveEndDate"`
	SubscriptionProducts []SubscriptionProduct        `json:"subscriptionProducts"`
	ExternalReferences   map[string]ExternalReference `json:"externalReferences,omitempty"`
}

type SubscriptionProduct struct {
	ParentSubscriptionProductID *int64 `json:"parentSubscriptionProductId"`
	SKU                         string `json:"sku"`
}

type ExternalReference struct {
	SubscriptionID    string `json:"subscriptionID,omitempty"`
	CustomerAccountID string `json:"customerAccountID,omitempty"`
	ProductCode       string `json:"productCode,omitempty"`
	CustomerID        string `json:"customerID,omitempty"`
	SellerAccount     string `json:"sellerAccount,omitempty"`
	AccountID         string `json:"accountID,omitempty"`
	SubscriptionGUID  string `json:"subscriptionGUID,omitempty"`
}

// Offering is the upstream catalog entry for a SKU.
type Offering struct {
	SKU               string         `json:"sku"`
	ProductName       string         `json:"productName"`
	Description       string         `json:"description"`
	EngProductIDs     []int          `json:"engProductIds"`
	ServiceLevel      string         `json:"serviceLevel"`
	Usage             string         `json:"usage"`
	Cores             *int           `json:"cores,omitempty"`
	Sockets           *int           `json:"sockets,omitempty"`
	HypervisorCores   *int           `json:"hypervisorCores,omitempty"`
	HypervisorSockets *int           `json:"hypervisorSockets,omitempty"`
	Metrics           map[string]int `json:"metrics,omitempty"`
}

type subscriptionPage struct {
	Items []Subscription `json:"items"`
}
