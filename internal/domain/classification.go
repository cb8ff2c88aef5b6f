package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"
)

// ClassificationSchemaVersion is the only schema_version the classifier emits.
const ClassificationSchemaVersion = 1

// MaxTaskTitleLength bounds task_title in runes.
const MaxTaskTitleLength = 80

var ErrInvalidClassification = errors.New("invalid classification")

type MessageType string

const (
	MessageTypeGroup       MessageType = "GROUP"
	MessageTypeStray       MessageType = "STRAY"
	MessageTypeInfoRequest MessageType = "INFO_REQUEST"
	MessageTypeIgnore      MessageType = "IGNORE"
)

// MessageTypes is the closed set of message types, in prompt order.
var MessageTypes = []MessageType{
	MessageTypeGroup,
	MessageTypeStray,
	MessageTypeInfoRequest,
	MessageTypeIgnore,
}

type TaskKey string

const (
	TaskSaleActive             TaskKey = "SALE_ACTIVE_TASKS"
	TaskSaleSold               TaskKey = "SALE_SOLD_TASKS"
	TaskSaleClosing            TaskKey = "SALE_CLOSING_TASKS"
	TaskLeaseActive            TaskKey = "LEASE_ACTIVE_TASKS"
	TaskLeaseLeased            TaskKey = "LEASE_LEASED_TASKS"
	TaskLeaseClosing           TaskKey = "LEASE_CLOSING_TASKS"
	TaskLeaseActiveArlyn       TaskKey = "LEASE_ACTIVE_TASKS_ARLYN"
	TaskRelistListingDealSale  TaskKey = "RELIST_LISTING_DEAL_SALE"
	TaskRelistListingDealLease TaskKey = "RELIST_LISTING_DEAL_LEASE"
	TaskBuyerDeal              TaskKey = "BUYER_DEAL"
	TaskBuyerDealClosing       TaskKey = "BUYER_DEAL_CLOSING_TASKS"
	TaskLeaseTenantDeal        TaskKey = "LEASE_TENANT_DEAL"
	TaskLeaseTenantDealClosing TaskKey = "LEASE_TENANT_DEAL_CLOSING_TASKS"
	TaskPreconDeal             TaskKey = "PRECON_DEAL"
	TaskMutualReleaseSteps     TaskKey = "MUTUAL_RELEASE_STEPS"
	TaskOpsMisc                TaskKey = "OPS_MISC_TASK"
	TaskRelistListingDeal      TaskKey = "RELIST_LISTING_DEAL"
)

// TaskKeys is the closed set the model may emit. RELIST_LISTING_DEAL is
// accepted by promotion rules for older rows but is not offered to the model.
var TaskKeys = []TaskKey{
	TaskSaleActive,
	TaskSaleSold,
	TaskSaleClosing,
	TaskLeaseActive,
	TaskLeaseLeased,
	TaskLeaseClosing,
	TaskLeaseActiveArlyn,
	TaskRelistListingDealSale,
	TaskRelistListingDealLease,
	TaskBuyerDeal,
	TaskBuyerDealClosing,
	TaskLeaseTenantDeal,
	TaskLeaseTenantDealClosing,
	TaskPreconDeal,
	TaskMutualReleaseSteps,
	TaskOpsMisc,
}

type GroupKey string

const (
	GroupSaleListing                  GroupKey = "SALE_LISTING"
	GroupLeaseListing                 GroupKey = "LEASE_LISTING"
	GroupSaleLeaseListing             GroupKey = "SALE_LEASE_LISTING"
	GroupSoldSaleLeaseListing         GroupKey = "SOLD_SALE_LEASE_LISTING"
	GroupRelistListing                GroupKey = "RELIST_LISTING"
	GroupRelistListingDealSaleOrLease GroupKey = "RELIST_LISTING_DEAL_SALE_OR_LEASE"
	GroupBuyOrLeased                  GroupKey = "BUY_OR_LEASED"
	GroupMarketingAgendaTemplate      GroupKey = "MARKETING_AGENDA_TEMPLATE"
)

var GroupKeys = []GroupKey{
	GroupSaleListing,
	GroupLeaseListing,
	GroupSaleLeaseListing,
	GroupSoldSaleLeaseListing,
	GroupRelistListing,
	GroupRelistListingDealSaleOrLease,
	GroupBuyOrLeased,
	GroupMarketingAgendaTemplate,
}

type ListingType string

const (
	ListingTypeSale  ListingType = "SALE"
	ListingTypeLease ListingType = "LEASE"
)

var ListingTypes = []ListingType{ListingTypeSale, ListingTypeLease}

// ClassificationResult is the structured intent extracted from one message.
type ClassificationResult struct {
	SchemaVersion int         `json:"schema_version"`
	MessageType   MessageType `json:"message_type" jsonschema:"description=GROUP declares a listing; STRAY is a standalone task"`
	TaskKey       *TaskKey    `json:"task_key"`
	GroupKey      *GroupKey   `json:"group_key"`
	Listing       ListingHint `json:"listing"`
	AssigneeHint  *string     `json:"assignee_hint" jsonschema:"description=Person named in the message; never invented"`
	DueDate       *string     `json:"due_date" jsonschema:"description=yyyy-MM-dd or yyyy-MM-ddTHH:mm in the configured timezone"`
	TaskTitle     *string     `json:"task_title"`
	Confidence    float64     `json:"confidence" jsonschema:"description=Between 0 and 1"`
	Explanations  []string    `json:"explanations"`
}

type ListingHint struct {
	Type    *ListingType `json:"type"`
	Address *string      `json:"address"`
}

// Validate enforces the taxonomy and the key/message-type invariant:
// INFO_REQUEST and IGNORE carry no keys, GROUP carries only group_key,
// STRAY carries only task_key.
func (c ClassificationResult) Validate() error {
	if c.SchemaVersion != ClassificationSchemaVersion {
		return invalid("schema_version must be %d, got %d", ClassificationSchemaVersion, c.SchemaVersion)
	}
	if !slices.Contains(MessageTypes, c.MessageType) {
		return invalid("unknown message_type %q", c.MessageType)
	}
	if c.TaskKey != nil && !slices.Contains(TaskKeys, *c.TaskKey) && *c.TaskKey != TaskRelistListingDeal {
		return invalid("unknown task_key %q", *c.TaskKey)
	}
	if c.GroupKey != nil && !slices.Contains(GroupKeys, *c.GroupKey) {
		return invalid("unknown group_key %q", *c.GroupKey)
	}
	if c.Listing.Type != nil && !slices.Contains(ListingTypes, *c.Listing.Type) {
		return invalid("unknown listing.type %q", *c.Listing.Type)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return invalid("confidence must be within [0,1], got %v", c.Confidence)
	}
	if c.TaskTitle != nil && utf8.RuneCountInString(*c.TaskTitle) > MaxTaskTitleLength {
		return invalid("task_title exceeds %d characters", MaxTaskTitleLength)
	}

	hasTask, hasGroup := c.TaskKey != nil, c.GroupKey != nil
	switch c.MessageType {
	case MessageTypeInfoRequest, MessageTypeIgnore:
		if hasTask || hasGroup {
			return invalid("%s must not set task_key or group_key", c.MessageType)
		}
	case MessageTypeGroup:
		if !hasGroup || hasTask {
			return invalid("GROUP requires group_key and no task_key")
		}
	case MessageTypeStray:
		if !hasTask || hasGroup {
			return invalid("STRAY requires task_key and no group_key")
		}
	}
	return nil
}

// UnmarshalJSON decodes and validates, so an invalid result never exists
// as a value. A missing schema_version defaults to the current version.
func (c *ClassificationResult) UnmarshalJSON(data []byte) error {
	type plain ClassificationResult
	decoded := plain{SchemaVersion: ClassificationSchemaVersion}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	result := ClassificationResult(decoded)
	if err := result.Validate(); err != nil {
		return err
	}
	*c = result
	return nil
}

// PromotionDealType reports the deal type a STRAY task key promotes to.
func (k TaskKey) PromotionDealType() (DealType, bool) {
	switch k {
	case TaskBuyerDeal, TaskBuyerDealClosing:
		return DealTypeBuyer, true
	case TaskLeaseTenantDeal, TaskLeaseTenantDealClosing:
		return DealTypeTenant, true
	case TaskRelistListingDealSale, TaskRelistListingDealLease, TaskRelistListingDeal:
		return DealTypeRelist, true
	}
	return "", false
}

type DealType string

const (
	DealTypeBuyer  DealType = "BUYER"
	DealTypeTenant DealType = "TENANT"
	DealTypeRelist DealType = "RELIST"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidClassification, fmt.Sprintf(format, args...))
}

