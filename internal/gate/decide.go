package gate

// Page classifies a pathname for routing.
type Page int

const (
	// PageApp is any page that renders inside the navigation shell.
	PageApp Page = iota
	// PagePublic is a sign-in page other than email verification.
	PagePublic
	// PageVerifyEmail is the email verification page, which is also public.
	PageVerifyEmail
	// PageOnboarding is the profile creation page.
	PageOnboarding
)

// Well-known pathnames.
const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathSignup         = "/signup"
	PathForgotPassword = "/forgot-password"
	PathVerifyEmail    = "/verify-email"
	PathOnboarding     = "/personalize"
)

// Classify maps a pathname to its Page class.
func Classify(pathname string) Page {
	switch pathname {
	case PathVerifyEmail:
		return PageVerifyEmail
	case PathLogin, PathSignup, PathForgotPassword:
		return PagePublic
	case PathOnboarding:
		return PageOnboarding
	default:
		return PageApp
	}
}

func (p Page) public() bool {
	return p == PagePublic || p == PageVerifyEmail
}

// Kind is what the gate tells the caller to do.
type Kind int

const (
	Loading Kind = iota
	Redirect
	Render
)

func (k Kind) String() string {
	switch k {
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "loading"
	}
}

// Outcome is the gate's decision for one evaluation.
type Outcome struct {
	Kind Kind
	// Target is set for redirects.
	Target string
	// Shell reports whether a rendered page is wrapped in the navigation shell.
	Shell bool
}

// Facts are the inputs to a routing decision.
type Facts struct {
	AuthKnown     bool
	SignedIn      bool
	EmailVerified bool
	UsesPassword  bool
	// ProfileLoaded is false when the profile has not been read, or the read failed.
	ProfileLoaded bool
	ProfileExists bool
	Page          Page
}

func (f Facts) signedOut() bool {
	return f.AuthKnown && !f.SignedIn
}

func (f Facts) unverified() bool {
	return f.AuthKnown && f.SignedIn && f.UsesPassword && !f.EmailVerified
}

func (f Facts) cleared() bool {
	return f.AuthKnown && f.SignedIn && !(f.UsesPassword && !f.EmailVerified)
}

// needsProfile reports whether the decision depends on the profile record.
func (f Facts) needsProfile() bool {
	return f.cleared() && !f.Page.public()
}

type rule struct {
	name    string
	applies func(Facts) bool
	outcome Outcome
}

// rules partition the fact space: exactly one applies to any Facts value.
var rules = []rule{
	{
		name:    "auth unknown",
		applies: func(f Facts) bool { return !f.AuthKnown },
		outcome: Outcome{Kind: Loading},
	},
	{
		name:    "signed out on public page",
		applies: func(f Facts) bool { return f.signedOut() && f.Page.public() },
		outcome: Outcome{Kind: Render},
	},
	{
		name:    "signed out elsewhere",
		applies: func(f Facts) bool { return f.signedOut() && !f.Page.public() },
		outcome: Outcome{Kind: Redirect, Target: PathLogin},
	},
	{
		name:    "unverified away from verification",
		applies: func(f Facts) bool { return f.unverified() && f.Page != PageVerifyEmail },
		outcome: Outcome{Kind: Redirect, Target: PathVerifyEmail},
	},
	{
		name:    "unverified on verification",
		applies: func(f Facts) bool { return f.unverified() && f.Page == PageVerifyEmail },
		outcome: Outcome{Kind: Render},
	},
	{
		name:    "signed in on public page",
		applies: func(f Facts) bool { return f.cleared() && f.Page.public() },
		outcome: Outcome{Kind: Redirect, Target: PathHome},
	},
	{
		name:    "profile pending",
		applies: func(f Facts) bool { return f.needsProfile() && !f.ProfileLoaded },
		outcome: Outcome{Kind: Loading},
	},
	{
		name: "no profile away from onboarding",
		applies: func(f Facts) bool {
			return f.needsProfile() && f.ProfileLoaded && !f.ProfileExists && f.Page != PageOnboarding
		},
		outcome: Outcome{Kind: Redirect, Target: PathOnboarding},
	},
	{
		name: "no profile on onboarding",
		applies: func(f Facts) bool {
			return f.needsProfile() && f.ProfileLoaded && !f.ProfileExists && f.Page == PageOnboarding
		},
		outcome: Outcome{Kind: Render},
	},
	{
		name: "profile on onboarding",
		applies: func(f Facts) bool {
			return f.needsProfile() && f.ProfileLoaded && f.ProfileExists && f.Page == PageOnboarding
		},
		outcome: Outcome{Kind: Redirect, Target: PathHome},
	},
	{
		name: "app",
		applies: func(f Facts) bool {
			return f.needsProfile() && f.ProfileLoaded && f.ProfileExists && f.Page == PageApp
		},
		outcome: Outcome{Kind: Render, Shell: true},
	},
}

// Decide returns the outcome of the first rule that applies. Rules never overlap,
// so the order only matters for readability.
func Decide(f Facts) Outcome {
	for _, r := range rules {
		if r.applies(f) {
			return r.outcome
		}
	}
	return Outcome{Kind: Loading}
}
