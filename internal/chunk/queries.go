package chunk

// Capture names drive strategy selection: the default strategy keeps
// captures whose name contains "name", "comment", "import" or "require".
// Captures prefixed with "_" only feed predicates.

const queryGo = `
(comment) @comment
(import_declaration) @definition.import
(package_clause (package_identifier) @name.definition.package)
(function_declaration name: (_) @name.definition.function) @definition.function
(method_declaration name: (_) @name.definition.method) @definition.method
(type_spec name: (_) @name.definition.type) @definition.type
(const_spec name: (_) @name.definition.constant)
(var_spec name: (_) @name.definition.variable)
`

const queryPython = `
(comment) @comment
(expression_statement (string) @docstring)
(import_statement) @definition.import
(import_from_statement) @definition.import
(class_definition name: (_) @name.definition.class) @definition.class
(function_definition name: (_) @name.definition.function) @definition.function
((assignment left: (identifier) @name.definition.type_alias type: (type) @_alias_type) @definition.type_alias
  (#match? @_alias_type "TypeAlias$"))
`

const queryJavaScript = `
(comment) @comment
(import_statement) @definition.import
((call_expression function: (identifier) @_fn) @definition.require
  (#eq? @_fn "require"))
(function_declaration name: (_) @name.definition.function) @definition.function
(generator_function_declaration name: (_) @name.definition.function) @definition.function
(class_declaration name: (_) @name.definition.class) @definition.class
(method_definition name: (_) @name.definition.method) @definition.method
(variable_declarator name: (identifier) @name.definition.function value: (arrow_function)) @definition.function
`

const queryTypeScript = `
(comment) @comment
(import_statement) @definition.import
((call_expression function: (identifier) @_fn) @definition.require
  (#eq? @_fn "require"))
(function_declaration name: (_) @name.definition.function) @definition.function
(function_signature name: (_) @name.definition.function)
(generator_function_declaration name: (_) @name.definition.function) @definition.function
(class_declaration name: (_) @name.definition.class) @definition.class
(abstract_class_declaration name: (_) @name.definition.class) @definition.class
(method_definition name: (_) @name.definition.method) @definition.method
(method_signature name: (_) @name.definition.method)
(interface_declaration name: (_) @name.definition.interface) @definition.interface
(type_alias_declaration name: (_) @name.definition.type) @definition.type
(enum_declaration name: (_) @name.definition.enum) @definition.enum
(variable_declarator name: (identifier) @name.definition.function value: (arrow_function)) @definition.function
`

const queryRust = `
(line_comment) @comment
(block_comment) @comment
(use_declaration) @definition.import
(function_item name: (_) @name.definition.function) @definition.function
(function_signature_item name: (_) @name.definition.function)
(struct_item name: (_) @name.definition.struct) @definition.struct
(enum_item name: (_) @name.definition.enum) @definition.enum
(trait_item name: (_) @name.definition.trait) @definition.trait
(impl_item type: (_) @name.definition.impl) @definition.impl
(mod_item name: (_) @name.definition.module)
(macro_definition name: (_) @name.definition.macro)
(type_item name: (_) @name.definition.type)
`

const queryJava = `
(line_comment) @comment
(block_comment) @comment
(import_declaration) @definition.import
(package_declaration (_) @name.definition.package)
(class_declaration name: (_) @name.definition.class) @definition.class
(interface_declaration name: (_) @name.definition.interface) @definition.interface
(enum_declaration name: (_) @name.definition.enum) @definition.enum
(method_declaration name: (_) @name.definition.method) @definition.method
(constructor_declaration name: (_) @name.definition.constructor) @definition.constructor
`

const queryC = `
(comment) @comment
(preproc_include) @definition.import
(function_definition declarator: (function_declarator declarator: (_) @name.definition.function)) @definition.function
(declaration declarator: (function_declarator declarator: (_) @name.definition.function))
(struct_specifier name: (_) @name.definition.struct body: (_))
(enum_specifier name: (_) @name.definition.enum)
(type_definition declarator: (_) @name.definition.type)
`

const queryCpp = `
(comment) @comment
(preproc_include) @definition.import
(function_definition declarator: (function_declarator declarator: (_) @name.definition.function)) @definition.function
(declaration declarator: (function_declarator declarator: (_) @name.definition.function))
(class_specifier name: (_) @name.definition.class body: (_)) @definition.class
(struct_specifier name: (_) @name.definition.struct body: (_))
(enum_specifier name: (_) @name.definition.enum)
(namespace_definition name: (_) @name.definition.namespace)
`

const queryCSharp = `
(comment) @comment
(using_directive) @definition.import
(namespace_declaration name: (_) @name.definition.namespace)
(class_declaration name: (_) @name.definition.class) @definition.class
(interface_declaration name: (_) @name.definition.interface) @definition.interface
(struct_declaration name: (_) @name.definition.struct)
(enum_declaration name: (_) @name.definition.enum)
(method_declaration name: (_) @name.definition.method) @definition.method
(constructor_declaration name: (_) @name.definition.constructor)
`

const queryRuby = `
(comment) @comment
((call method: (identifier) @_fn) @definition.require
  (#match? @_fn "^require"))
(class name: (_) @name.definition.class) @definition.class
(module name: (_) @name.definition.module) @definition.module
(method name: (_) @name.definition.method) @definition.method
(singleton_method name: (_) @name.definition.method) @definition.method
`

const queryPHP = `
(comment) @comment
(namespace_use_declaration) @definition.import
(function_definition name: (_) @name.definition.function) @definition.function
(class_declaration name: (_) @name.definition.class) @definition.class
(interface_declaration name: (_) @name.definition.interface) @definition.interface
(trait_declaration name: (_) @name.definition.trait) @definition.trait
(method_declaration name: (_) @name.definition.method) @definition.method
`

const queryCSS = `
(comment) @comment
(import_statement) @definition.import
(rule_set (selectors) @name.definition.selector)
(keyframes_statement (keyframes_name) @name.definition.keyframes)
`

// queryMarkup captures every opening tag name for the indented skeleton.
const queryMarkup = `
(start_tag (tag_name) @name.tag)
(self_closing_tag (tag_name) @name.tag)
`

// queryComposite yields the document root once; the composite strategy
// runs its own sub-language passes from there.
const queryComposite = `
(document) @composite.document
`
