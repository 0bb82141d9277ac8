package models

import (
	v "sapid/internal/forms/validation"
)

var (
	AgeGroups = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

	ResearchTopics = []string{
		"Consumer Behavior",
		"Market Trends",
		"Product Preferences",
		"Brand Perception",
		"Technology Adoption",
		"Sustainability",
		"Digital Marketing",
		"E-commerce",
		"Social Media",
		"Other (please specify)",
	}

	RequestTypes = []string{"access", "rectification", "erasure", "restriction", "portability", "objection", "withdraw"}

	DataCategories = []string{
		"Personal Information (name, email, phone)",
		"Contact Form Submissions",
		"Website Usage Data",
		"Marketing Communications",
		"Survey Responses",
		"Customer Service Records",
		"Analytics Data",
		"Other (please specify)",
	}

	VerificationMethods = []string{"email", "phone", "postal"}

	UrgencyLevels = []string{"low", "normal", "high", "urgent"}
)

const (
	msgNameRequired  = "Name is required"
	msgEmailRequired = "Email is required"
	msgEmailInvalid  = "Please enter a valid email address"
)

func text(name string) FieldDef {
	return FieldDef{Name: name, Default: v.Text("")}
}

func choice(name, def string, options []string) FieldDef {
	return FieldDef{Name: name, Default: v.Text(def), Options: options}
}

func multi(name string, options []string) FieldDef {
	return FieldDef{Name: name, Multi: true, Default: v.List(), Options: options}
}

func emailRules() []v.Rule {
	return []v.Rule{v.Required(msgEmailRequired), v.Email(msgEmailInvalid)}
}

var definitions = map[Kind]Definition{
	KindContact: {
		Kind: KindContact,
		Fields: []FieldDef{
			text("name"), text("email"), text("company"), text("phone"), text("subject"), text("message"),
		},
		Rules: v.RuleSet{
			{Field: "name", Rules: []v.Rule{v.Required(msgNameRequired)}},
			{Field: "email", Rules: emailRules()},
			{Field: "subject", Rules: []v.Rule{v.Required("Subject is required")}},
			{Field: "message", Rules: []v.Rule{
				v.Required("Message is required"),
				v.MinLength(10, "Message must be at least 10 characters long"),
			}},
		},
		Reset: ResetOnSuccess,
	},
	KindOpinion: {
		Kind: KindOpinion,
		Fields: []FieldDef{
			text("name"), text("email"),
			choice("age", "", AgeGroups),
			text("occupation"),
			choice("researchTopic", "", ResearchTopics),
			text("opinion"), text("experience"), text("suggestions"),
		},
		Rules: v.RuleSet{
			{Field: "name", Rules: []v.Rule{v.Required(msgNameRequired)}},
			{Field: "email", Rules: emailRules()},
			{Field: "age", Rules: []v.Rule{
				v.Required("Age group is required"),
				v.OneOf(AgeGroups, "Please select a valid age group"),
			}},
			{Field: "occupation", Rules: []v.Rule{v.Required("Occupation is required")}},
			{Field: "researchTopic", Rules: []v.Rule{
				v.Required("Research topic is required"),
				v.OneOf(ResearchTopics, "Please select a valid research topic"),
			}},
			{Field: "opinion", Rules: []v.Rule{
				v.Required("Your opinion is required"),
				v.MinLength(20, "Please provide a more detailed opinion (at least 20 characters)"),
			}},
		},
		Reset: ResetOnSuccess,
	},
	KindDataRights: {
		Kind: KindDataRights,
		Fields: []FieldDef{
			choice("requestType", "", RequestTypes),
			text("name"), text("email"), text("phone"), text("description"),
			multi("dataCategories", DataCategories),
			text("additionalInfo"),
			choice("verificationMethod", "email", VerificationMethods),
			choice("urgency", "normal", UrgencyLevels),
		},
		Rules: v.RuleSet{
			{Field: "requestType", Rules: []v.Rule{
				v.Required("Please select a request type"),
				v.OneOf(RequestTypes, "Please select a request type"),
			}},
			{Field: "name", Rules: []v.Rule{v.Required(msgNameRequired)}},
			{Field: "email", Rules: emailRules()},
			{Field: "description", Rules: []v.Rule{v.Required("Please describe your request")}},
			{Field: "dataCategories", Rules: []v.Rule{
				v.MinSelected(1, "Please select at least one data category"),
				v.OneOf(DataCategories, "Please select data categories from the list"),
			}},
			{Field: "verificationMethod", Rules: []v.Rule{v.OneOf(VerificationMethods, "Please select a verification method")}},
			{Field: "urgency", Rules: []v.Rule{v.OneOf(UrgencyLevels, "Please select an urgency level")}},
		},
		Reset: ResetOnIdle,
	},
}
