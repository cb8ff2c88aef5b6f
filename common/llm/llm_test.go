package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"archieos.app/intake/common/llm"
)

var _ = Describe("ExtractJSONObject", func() {
	DescribeTable("finds the first balanced object",
		func(input, expected string) {
			got, err := llm.ExtractJSONObject(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(got)).To(Equal(expected))
		},
		Entry("bare object", `{"a":1}`, `{"a":1}`),
		Entry("surrounded by prose", `Here you go: {"a":1} hope that helps`, `{"a":1}`),
		Entry("code fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`),
		Entry("braces inside strings", `{"text":"use {curly} braces"}`, `{"text":"use {curly} braces"}`),
		Entry("escaped quote inside string", `{"text":"say \"}\" now"}`, `{"text":"say \"}\" now"}`),
		Entry("unbalanced prefix skipped", `{ broken and then {"ok":true}`, `{"ok":true}`),
		Entry("first of two objects", `{"a":1} {"b":2}`, `{"a":1}`),
	)

	It("reports an unterminated object as missing", func() {
		got, err := llm.ExtractJSONObject(`noise {"a": "unterminated`)
		Expect(err).To(MatchError(llm.ErrNoJSONObject))
		Expect(got).To(BeNil())
	})

	It("reports when no object exists", func() {
		_, err := llm.ExtractJSONObject("I cannot classify this message.")
		Expect(err).To(MatchError(llm.ErrNoJSONObject))
	})
})

type sample struct {
	Kind  string   `json:"kind"`
	Note  *string  `json:"note"`
	Score float64  `json:"score"`
	Tags  []string `json:"tags"`
}

var _ = Describe("Schema", func() {
	var validator *llm.SchemaValidator

	BeforeEach(func() {
		schema := llm.Nullable(llm.GenerateSchema[sample](), "note", "tags")
		var err error
		validator, err = llm.CompileSchema("sample", schema)
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires every property", func() {
		schema := llm.GenerateSchema[sample]()
		Expect(schema.Required).To(ConsistOf("kind", "note", "score", "tags"))
	})

	It("accepts null for nullable properties", func() {
		Expect(validator.Validate([]byte(`{"kind":"a","note":null,"score":0.5,"tags":null}`))).To(Succeed())
		Expect(validator.Validate([]byte(`{"kind":"a","note":"x","score":0.5,"tags":["t"]}`))).To(Succeed())
	})

	It("rejects null for other properties", func() {
		err := validator.Validate([]byte(`{"kind":null,"note":null,"score":0.5,"tags":null}`))
		Expect(err).To(MatchError(llm.ErrSchemaMismatch))
	})

	It("rejects missing and unknown properties", func() {
		Expect(validator.Validate([]byte(`{"kind":"a","score":1,"tags":null}`))).To(MatchError(llm.ErrSchemaMismatch))
		Expect(validator.Validate([]byte(`{"kind":"a","note":null,"score":1,"tags":null,"extra":1}`))).To(MatchError(llm.ErrSchemaMismatch))
	})

	It("rejects invalid JSON", func() {
		Expect(validator.Validate([]byte(`{"kind":`))).To(MatchError(llm.ErrSchemaMismatch))
	})
})

var _ = Describe("IsRetryable", func() {
	ctx := context.Background()

	DescribeTable("classifies errors",
		func(err error, expected bool) {
			Expect(llm.IsRetryable(ctx, err)).To(Equal(expected))
		},
		Entry("nil", nil, false),
		Entry("context cancelled", fmt.Errorf("chat: %w", context.Canceled), false),
		Entry("deadline exceeded", context.DeadlineExceeded, false),
		Entry("no json object", fmt.Errorf("decode: %w", llm.ErrNoJSONObject), false),
		Entry("schema mismatch", fmt.Errorf("decode: %w", llm.ErrSchemaMismatch), false),
		Entry("json syntax", &json.SyntaxError{}, false),
		Entry("transport error", errors.New("connection reset by peer"), true),
	)
})

var _ = Describe("New", func() {
	It("rejects unknown providers", func() {
		_, err := llm.New(llm.Config{Provider: "bard", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported llm provider")))
	})

	It("builds each supported provider", func() {
		for _, provider := range []string{llm.ProviderOpenAI, llm.ProviderAnthropic} {
			client, err := llm.New(llm.Config{Provider: provider, APIKey: "k"})
			Expect(err).NotTo(HaveOccurred())
			Expect(client.Provider()).To(Equal(provider))
			Expect(client.Model()).NotTo(BeEmpty())
		}
	})
})
