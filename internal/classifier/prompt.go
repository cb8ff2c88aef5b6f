package classifier

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"archieos.app/intake/common/llm"
	"archieos.app/intake/internal/domain"
)

const promptVersion = "v1"

// isoLayout matches the reference timestamp format shown to the model.
const isoLayout = "2006-01-02T15:04:05"

const systemPrompt = `You transform real-estate operations Slack messages into JSON only that conforms to the developer instructions and schema.
Never fabricate fields. If irrelevant to ops, return IGNORE. If operational but incomplete, return INFO_REQUEST with brief explanations.
Do not output prose or code fences. JSON only.`

const developerPromptTemplate = `Objective
Classify a Slack message and extract fields into a strict JSON object that matches the schema. Return only valid JSON.

Message types
• GROUP: the message declares or updates a listing container (i.e., "this is a listing entity").
  Allowed group_key values:
%[3]s
• STRAY: a single actionable task that does not declare or update a listing group (creates an agent task). Pick exactly one task_key: prefer the catalog below; otherwise use OPS_MISC_TASK for any clear request.
• INFO_REQUEST: operational real-estate content that is missing specifics to proceed. Explain what's missing in explanations.
• IGNORE: chit-chat, reactions, or content unrelated to operations.

Decision rules & tie-breaks
• Choose exactly one message_type.
• Prefer GROUP if a message both declares/updates a listing and requests tasks.
• GROUP ⇒ set group_key (one of the allowed values) and task_key:null.
• STRAY ⇒ set exactly one task_key (from taxonomy) and group_key:null. Creates an agent task (not tied to a listing).
• If multiple task candidates appear, choose the most specific (e.g., *_CLOSING_* over *_ACTIVE_*). If ambiguity remains, use INFO_REQUEST and explain briefly.

Listing types (for listing.type)
• Only set "SALE" or "LEASE" if explicit OR unambiguously implied by the hints below. Otherwise null.
  Hints for SALE (non-exhaustive): sold, conditional, firm, purchase agreement/APS, buyer deal, closing date (sale), MLS #, open house, staging, deposit (sale), conditions removal.
  Hints for LEASE (non-exhaustive): lease/leased, tenant/landlord, showings schedule, OTL/offer to lease, LOI, rent/TMI/NNN, possession date (lease), renewal, term/rate per month.

Assignees & addresses
• assignee_hint: person explicitly named or @-mentioned. If only pronouns ("he/she/they") or only a team ("Marketing"), set null.
• listing.address: extract only if explicitly present in text OR clearly present within provided links/attachment titles.

Dates & timezone policy
• Timezone: %[1]s. Current reference time: %[2]s
• CRITICAL: use message_timestamp_iso as YOUR reference for "today" when parsing relative dates.
• Output format rules:
  - Date-only (no time mentioned): use yyyy-MM-dd
  - Date AND time mentioned: use yyyy-MM-ddTHH:mm (24-hour)
  - NEVER add a default time if time was not mentioned in the message
• Date parsing examples (assume message_timestamp_iso = 2025-11-02T10:00:00, a Sunday):
  - "tomorrow" → "2025-11-03"
  - "in 2 days" / "in two days" → "2025-11-04"
  - "by Friday" / "this Friday" → next Friday after the message → "2025-11-07"
  - "next week" → 7 days after the message → "2025-11-09"
  - "Oct 15" → abbreviated month, infer year → "2025-10-15"
  - "December 1" → full month name, infer year → "2025-12-01"
  - "due November 7" → "2025-11-07"
  - "tomorrow at 3pm" → "2025-11-03T15:00"
  - "Friday at 5pm" → "2025-11-07T17:00"
• If ambiguous or contradictory, set null and add a brief explanation.

Best-effort vs nulls
• Prefer best-effort fills with a short explanation when reasonable (e.g., listing.type from strong hints, relative dates).
• Never fabricate addresses or names.

Task taxonomy (valid task_key values for STRAY)
Sale Listings
• SALE_ACTIVE_TASKS, SALE_SOLD_TASKS, SALE_CLOSING_TASKS
Lease Listings
• LEASE_ACTIVE_TASKS, LEASE_LEASED_TASKS, LEASE_CLOSING_TASKS, LEASE_ACTIVE_TASKS_ARLYN (special case)
Re-List Listings
• RELIST_LISTING_DEAL_SALE, RELIST_LISTING_DEAL_LEASE
Buyer Deals
• BUYER_DEAL, BUYER_DEAL_CLOSING_TASKS
Lease Tenant Deals
• LEASE_TENANT_DEAL, LEASE_TENANT_DEAL_CLOSING_TASKS
Pre-Con Deals
• PRECON_DEAL
Mutual Release
• MUTUAL_RELEASE_STEPS
General Ops
• OPS_MISC_TASK (any actionable request without a specific template)

Task titles (STRAY only)
• Generate a concise task_title (5-10 words, at most %[4]d characters) summarizing the actionable request. It becomes the agent task name.
• Remove filler words ("please", "can you", "could you") and capitalize the first word.
• Examples:
  - "can you bring a small stack of your business cards to the office tomorrow?" → "Bring business cards to office"
  - "Please update the brochure copy and send draft by Friday" → "Update brochure copy and send draft"
  - "need help setting up the new listing photos" → "Set up new listing photos"
• Set task_title:null for GROUP, INFO_REQUEST, IGNORE.

Extraction rules
• listing.address: street/building/unit only if explicit in text or provided links; otherwise null.
• assignee_hint: name/@mention only; pronouns/teams ⇒ null.
• due_date: resolve per rules above; if not resolvable, null with a brief explanation.
• confidence ∈ [0,1] reflects certainty of classification and extracted fields.
• explanations: brief bullets for assumptions, heuristics, or missing info; null if not needed.`

// Prompt is the full model input for one message.
type Prompt struct {
	System   string
	Messages []llm.Message
}

// BuildPrompt assembles the instructions, worked examples, and the
// redacted message. ts is the Slack message timestamp and anchors
// relative dates; loc is the business timezone.
func BuildPrompt(text, ts string, links []string, loc *time.Location, now time.Time) Prompt {
	refISO := referenceTime(ts, loc, now).Format(isoLayout)

	var user strings.Builder
	user.WriteString("Return ONLY JSON per the schema.\n\n")
	fmt.Fprintf(&user, "Context: timezone=%s; message_timestamp_iso=%s\n\n", loc.String(), refISO)
	user.WriteString("Message:\n")
	user.WriteString(RedactPII(text))
	if len(links) > 0 {
		user.WriteString("\n\nLinks (verbatim):\n")
		user.WriteString(strings.Join(links, "\n"))
	}

	messages := make([]llm.Message, 0, len(fewShots)*2+1)
	for _, shot := range fewShots {
		messages = append(messages,
			llm.UserMessage(fmt.Sprintf("Input: %q", shot.input)),
			llm.AssistantMessage(mustJSON(shot.output)))
	}
	messages = append(messages, llm.UserMessage(user.String()))

	return Prompt{
		System:   systemPrompt + "\n\n" + developerPrompt(loc, refISO),
		Messages: messages,
	}
}

func developerPrompt(loc *time.Location, refISO string) string {
	var groups strings.Builder
	for i, g := range domain.GroupKeys {
		if i > 0 {
			groups.WriteByte('\n')
		}
		groups.WriteString("  • ")
		groups.WriteString(string(g))
	}
	return fmt.Sprintf(developerPromptTemplate, loc.String(), refISO, groups.String(), domain.MaxTaskTitleLength)
}

// referenceTime converts a Slack ts ("1700000000.000100") to wall time in
// loc, falling back to now when ts is missing or malformed.
func referenceTime(ts string, loc *time.Location, now time.Time) time.Time {
	if secs, err := strconv.ParseFloat(ts, 64); err == nil && secs > 0 {
		whole := int64(secs)
		nanos := int64((secs - float64(whole)) * float64(time.Second))
		return time.Unix(whole, nanos).In(loc)
	}
	return now.In(loc)
}

type fewShot struct {
	input  string
	output domain.ClassificationResult
}

var fewShots = []fewShot{
	{
		input: "Create a new lease listing for 22 King St W unit 1402.",
		output: domain.ClassificationResult{
			SchemaVersion: domain.ClassificationSchemaVersion,
			MessageType:   domain.MessageTypeGroup,
			GroupKey:      ptr(domain.GroupLeaseListing),
			Listing:       domain.ListingHint{Type: ptr(domain.ListingTypeLease), Address: ptr("22 King St W unit 1402")},
			Confidence:    0.94,
			Explanations:  []string{"Due date not present"},
		},
	},
	{
		input: "For 18 Oak Ave, start closing checklist; target Oct 3 17:00.",
		output: domain.ClassificationResult{
			SchemaVersion: domain.ClassificationSchemaVersion,
			MessageType:   domain.MessageTypeStray,
			TaskKey:       ptr(domain.TaskSaleClosing),
			Listing:       domain.ListingHint{Type: ptr(domain.ListingTypeSale), Address: ptr("18 Oak Ave")},
			DueDate:       ptr("2025-10-03T17:00"),
			TaskTitle:     ptr("Start closing checklist for 18 Oak Ave"),
			Confidence:    0.91,
		},
	},
	{
		input: "Please start active tasks for the new listing.",
		output: domain.ClassificationResult{
			SchemaVersion: domain.ClassificationSchemaVersion,
			MessageType:   domain.MessageTypeInfoRequest,
			Confidence:    0.72,
			Explanations:  []string{"Missing listing type (SALE/LEASE)", "Missing address", "Due date not present"},
		},
	},
	{
		input: "Great job team! 🎉",
		output: domain.ClassificationResult{
			SchemaVersion: domain.ClassificationSchemaVersion,
			MessageType:   domain.MessageTypeIgnore,
			Confidence:    0.99,
			Explanations:  []string{"Irrelevant to operations"},
		},
	},
	{
		input: "Please update the brochure copy and send draft by Friday.",
		output: domain.ClassificationResult{
			SchemaVersion: domain.ClassificationSchemaVersion,
			MessageType:   domain.MessageTypeStray,
			TaskKey:       ptr(domain.TaskOpsMisc),
			TaskTitle:     ptr("Update brochure copy and send draft"),
			Confidence:    0.74,
			Explanations:  []string{"Generic operations request without a specific template"},
		},
	},
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func ptr[T any](v T) *T {
	return &v
}
