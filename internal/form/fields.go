package form

// Field names a registration form input. The set is closed: every value the
// form collects has a constant here and a row in the descriptor table.
type Field string

const (
	CollegeName         Field = "collegeName"
	EstablishedYear     Field = "establishedYear"
	Address             Field = "address"
	Email               Field = "email"
	Phone               Field = "phone"
	RepresentativeName  Field = "representativeName"
	RepresentativePhone Field = "representativePhone"
	RepresentativeEmail Field = "representativeEmail"
	CollegeWebsite      Field = "collegeWebsite"
	Departments         Field = "departments"
	TotalStudents       Field = "totalStudents"
	BatchesPassedOut    Field = "batchesPassedOut"
	PassPercentage      Field = "passPercentage"

	CoordinatorName        Field = "coordinatorName"
	CoordinatorDesignation Field = "coordinatorDesignation"
	CoordinatorPhone       Field = "coordinatorPhone"
	CoordinatorEmail       Field = "coordinatorEmail"
	FeeConcession          Field = "feeConcession"
	BankName               Field = "bankName"
	AccountNumber          Field = "accountNumber"
	ConfirmAccountNumber   Field = "confirmAccountNumber"
	IFSCCode               Field = "ifscCode"
	InfrastructureDetails  Field = "infrastructureDetails"

	// Attachment slots. They carry errors but no text value.
	CancelledCheque     Field = "cancelledCheque"
	InfrastructureFiles Field = "infrastructureFiles"
)

// Section is one step of the registration form.
type Section struct {
	Title string
	Icon  string
}

// Descriptor declares a field's placement and its ordered rules.
type Descriptor struct {
	Field    Field
	Label    string
	Section  int
	Required bool
	// NumericInput fields drop non-digit keystrokes at the input boundary.
	NumericInput bool
	Rules        []Rule
}

const (
	SectionCollegeInfo = iota
	SectionAcademicFinancial
)

var sections = []Section{
	{Title: "College Information", Icon: "building"},
	{Title: "Academic & Financial Details", Icon: "credit-card"},
}

const (
	phonePattern = `^\+?[0-9][0-9 \-]{8,14}[0-9]$`
	ifscPattern  = `^[A-Z]{4}0[A-Z0-9]{6}$`
)

var descriptors = []Descriptor{
	// College Information
	{Field: CollegeName, Label: "College/School Name", Section: SectionCollegeInfo, Required: true, Rules: []Rule{
		Required("College name is required"),
		MinLength(2, "College name is required"),
	}},
	{Field: EstablishedYear, Label: "Established Year", Section: SectionCollegeInfo, Required: true, NumericInput: true, Rules: []Rule{
		Required("Established year is required"),
		Numeric("The Established Year field must contain only numbers."),
		ExactLength(4, "Established year must be 4 digits"),
	}},
	{Field: Address, Label: "Address", Section: SectionCollegeInfo, Required: true, Rules: []Rule{
		Required("Complete address is required"),
		MinLength(10, "Complete address is required"),
	}},
	{Field: Email, Label: "Email", Section: SectionCollegeInfo, Required: true, Rules: []Rule{
		Required("Valid email is required"),
		EmailAddress("Valid email is required"),
	}},
	{Field: Phone, Label: "Phone Number", Section: SectionCollegeInfo, Required: true, Rules: []Rule{
		Required("Phone number is required"),
		Pattern(phonePattern, "Enter a valid phone number"),
	}},
	{Field: RepresentativeName, Label: "Management Representative Name", Section: SectionCollegeInfo, Required: true, Rules: []Rule{
		Required("Management representative name is required"),
		MinLength(2, "Management representative name is required"),
	}},
	{Field: RepresentativePhone, Label: "Representative Phone", Section: SectionCollegeInfo, Required: true, Rules: []Rule{
		Required("Representative phone is required"),
		Pattern(phonePattern, "Enter a valid phone number"),
	}},
	{Field: RepresentativeEmail, Label: "Representative Email", Section: SectionCollegeInfo, Required: true, Rules: []Rule{
		Required("Representative email is required"),
		EmailAddress("Representative email is required"),
	}},
	{Field: CollegeWebsite, Label: "College Website", Section: SectionCollegeInfo, Rules: []Rule{
		AbsoluteURL("Enter a valid website URL"),
	}},
	{Field: Departments, Label: "Number of Departments", Section: SectionCollegeInfo, NumericInput: true, Rules: []Rule{
		Numeric("The Departments field must contain only numbers."),
	}},
	{Field: TotalStudents, Label: "Total Number of Students", Section: SectionCollegeInfo, NumericInput: true, Rules: []Rule{
		Numeric("The Total Students field must contain only numbers."),
	}},
	{Field: BatchesPassedOut, Label: "Number of Batches Passed Out", Section: SectionCollegeInfo, NumericInput: true, Rules: []Rule{
		Numeric("The Batches Passed Out field must contain only numbers."),
	}},
	{Field: PassPercentage, Label: "Pass Percentage", Section: SectionCollegeInfo, NumericInput: true, Rules: []Rule{
		Numeric("The Pass % field must contain only numbers."),
	}},

	// Academic & Financial Details
	{Field: CoordinatorName, Label: "Coordinator Name", Section: SectionAcademicFinancial, Required: true, Rules: []Rule{
		Required("Coordinator name is required"),
		MinLength(2, "Coordinator name is required"),
	}},
	{Field: CoordinatorDesignation, Label: "Coordinator Designation", Section: SectionAcademicFinancial, Required: true, Rules: []Rule{
		Required("Coordinator designation is required"),
		MinLength(2, "Coordinator designation is required"),
	}},
	{Field: CoordinatorPhone, Label: "Coordinator Phone", Section: SectionAcademicFinancial, Required: true, Rules: []Rule{
		Required("Coordinator phone is required"),
		Pattern(phonePattern, "Enter a valid phone number"),
	}},
	{Field: CoordinatorEmail, Label: "Coordinator Email", Section: SectionAcademicFinancial, Required: true, Rules: []Rule{
		Required("Coordinator email is required"),
		EmailAddress("Coordinator email is required"),
	}},
	{Field: FeeConcession, Label: "Fee Concession", Section: SectionAcademicFinancial, Required: true, Rules: []Rule{
		Required("Fee concession details are required"),
		MinLength(10, "Fee concession details are required"),
	}},
	{Field: BankName, Label: "Bank Name", Section: SectionAcademicFinancial, Required: true, Rules: []Rule{
		Required("Bank name is required"),
		MinLength(2, "Bank name is required"),
	}},
	{Field: AccountNumber, Label: "Account Number", Section: SectionAcademicFinancial, Required: true, NumericInput: true, Rules: []Rule{
		Required("Account number is required"),
		Numeric("The Account Number field must contain only numbers."),
		MinLength(8, "Account number must be at least 8 digits"),
	}},
	{Field: ConfirmAccountNumber, Label: "Confirm Account Number", Section: SectionAcademicFinancial, Required: true, NumericInput: true, Rules: []Rule{
		Required("Please confirm account number"),
		EqualsField(AccountNumber, "Account numbers don't match"),
	}},
	{Field: IFSCCode, Label: "IFSC Code", Section: SectionAcademicFinancial, Required: true, Rules: []Rule{
		Required("IFSC code is required"),
		ExactLength(11, "IFSC code must be 11 characters"),
		Pattern(ifscPattern, "Invalid IFSC Code format."),
	}},
	{Field: InfrastructureDetails, Label: "Infrastructure Details", Section: SectionAcademicFinancial},
}

var descriptorIndex = func() map[Field]int {
	idx := make(map[Field]int, len(descriptors))
	for i, d := range descriptors {
		idx[d.Field] = i
	}
	return idx
}()

// Lookup returns the descriptor for f.
func Lookup(f Field) (Descriptor, bool) {
	i, ok := descriptorIndex[f]
	if !ok {
		return Descriptor{}, false
	}
	return descriptors[i], true
}

// Known reports whether f is a text field of the form.
func (f Field) Known() bool {
	_, ok := descriptorIndex[f]
	return ok
}

func (f Field) String() string { return string(f) }

// Descriptors returns the table in declaration order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Sections returns the ordered form steps.
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// SectionFields returns every field of a section in declaration order.
func SectionFields(section int) []Field {
	var out []Field
	for _, d := range descriptors {
		if d.Section == section {
			out = append(out, d.Field)
		}
	}
	return out
}

// RequiredFields returns the required fields of a section in declaration order.
func RequiredFields(section int) []Field {
	var out []Field
	for _, d := range descriptors {
		if d.Section == section && d.Required {
			out = append(out, d.Field)
		}
	}
	return out
}

// AllRequiredFields returns the required fields across every section.
func AllRequiredFields() []Field {
	var out []Field
	for _, d := range descriptors {
		if d.Required {
			out = append(out, d.Field)
		}
	}
	return out
}
