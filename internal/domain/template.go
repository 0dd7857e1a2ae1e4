package domain

// CustomTemplateID identifies the single user-uploaded template.
const CustomTemplateID = "custom"

// MemeTemplate is a background image plus the description handed to the
// content service as context.
type MemeTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// IsCustom reports whether t came from a user upload.
func (t *MemeTemplate) IsCustom() bool {
	return t != nil && t.ID == CustomTemplateID
}

// NewCustomTemplate builds the template for an uploaded image reference.
func NewCustomTemplate(dataURL string) *MemeTemplate {
	return &MemeTemplate{
		ID:          CustomTemplateID,
		Name:        "Custom Upload",
		URL:         dataURL,
		Description: "User uploaded image",
	}
}

// Catalog is the built-in template gallery.
var Catalog = []MemeTemplate{
	{
		ID:          "t1",
		Name:        "Frustrated Dev",
		URL:         "https://images.unsplash.com/photo-1523240795612-9a054b0db644?auto=format&fit=crop&w=800&q=80",
		Description: "A stressed person holding their head in hands, looking overwhelmed by a problem.",
	},
	{
		ID:          "t2",
		Name:        "It Works!",
		URL:         "https://images.unsplash.com/photo-1535713875002-d1d0cf377fde?auto=format&fit=crop&w=800&q=80",
		Description: "A person looking successful, happy, and confident.",
	},
	{
		ID:          "t3",
		Name:        "Hacker Mode",
		URL:         "https://images.unsplash.com/photo-1526374965328-7f61d4dc18c5?auto=format&fit=crop&w=800&q=80",
		Description: "A cool, dark matrix-style code background, representing serious hacking or complex backend.",
	},
	{
		ID:          "t4",
		Name:        "Messy Cables",
		URL:         "https://images.unsplash.com/photo-1558494949-efdeb6bf8d71?auto=format&fit=crop&w=800&q=80",
		Description: "A chaotic mess of server cables, representing spaghetti code or infrastructure disasters.",
	},
	{
		ID:          "t5",
		Name:        "Dog Coder",
		URL:         "https://images.unsplash.com/photo-1587300003388-59208cc962cb?auto=format&fit=crop&w=800&q=80",
		Description: "A cute dog sitting in front of a laptop, acting like a developer who has no idea what they are doing.",
	},
	{
		ID:          "t6",
		Name:        "Waiting Forever",
		URL:         "https://images.unsplash.com/photo-1516139134453-745164295e9b?auto=format&fit=crop&w=800&q=80",
		Description: "A skeleton toy sitting on a chair, implying waiting an eternity for a build to finish or a page to load.",
	},
	{
		ID:          "t7",
		Name:        "Pure Confusion",
		URL:         "https://images.unsplash.com/photo-1635070041078-e363dbe005cb?auto=format&fit=crop&w=800&q=80",
		Description: "A blackboard full of complex mathematical equations, representing reading legacy code or understanding regex.",
	},
	{
		ID:          "t8",
		Name:        "Production Fire",
		URL:         "https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?auto=format&fit=crop&w=800&q=80",
		Description: "A high-rise building with a dramatic, chaotic vibe, representing a server crash or major production incident.",
	},
	{
		ID:          "t9",
		Name:        "Caffeine Overload",
		URL:         "https://images.unsplash.com/photo-1514432324607-a09d9b4aefdd?auto=format&fit=crop&w=800&q=80",
		Description: "A close-up of a strong cup of coffee, representing the fuel needed to survive a deadline.",
	},
}

// SuggestedTopics are offered before the first generation.
var SuggestedTopics = []string{
	"Production bug on Friday",
	"CSS centering div",
	"Git merge conflict",
	"It works on my machine",
	"Junior dev deleting database",
}

// FindTemplate returns a copy of the template with id.
func FindTemplate(templates []MemeTemplate, id string) (*MemeTemplate, bool) {
	for i := range templates {
		if templates[i].ID == id {
			t := templates[i]
			return &t, true
		}
	}
	return nil, false
}
